package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"vjezbajmo/internal/config"
	"vjezbajmo/internal/model"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator asks an OpenAI-compatible chat API for exercises using
// structured output and validates the reply before decoding it.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

func NewOpenAIGenerator(cfg config.GenerationConfig, logger *slog.Logger) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generation API key is required: %w", model.ErrConfiguration)
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	modelID := cfg.Model
	if modelID == "" {
		modelID = config.DefaultGenerationModel
	}

	return &OpenAIGenerator{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     modelID,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}, nil
}

// generatedParagraph and generatedSentences mirror the response schemas.
type generatedParagraph struct {
	Title     string `json:"title"`
	Paragraph string `json:"paragraph"`
	Questions []struct {
		BlankNumber   int      `json:"blankNumber"`
		BaseForm      string   `json:"baseForm"`
		CorrectAnswer []string `json:"correctAnswer"`
		Explanation   string   `json:"explanation"`
		IsPlural      bool     `json:"isPlural"`
	} `json:"questions"`
}

type generatedSentences struct {
	Title     string `json:"title"`
	Exercises []struct {
		Text          string   `json:"text"`
		CorrectAnswer []string `json:"correctAnswer"`
		Explanation   string   `json:"explanation"`
		Options       []string `json:"options"`
		CorrectChoice string   `json:"correctChoice"`
	} `json:"exercises"`
}

func failed(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, model.ErrGenerationFailed)...)
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req model.GenerationRequest) (*model.ExerciseSet, error) {
	shape, err := req.ExerciseType.Shape()
	if err != nil {
		return nil, failed("%v", err)
	}
	sch := schemaFor(shape)

	schemaBytes, err := json.Marshal(sch.Definition)
	if err != nil {
		return nil, failed("marshal schema: %v", err)
	}

	chatReq := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserMessage(req)},
		},
		MaxCompletionTokens: g.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   sch.Name,
				Schema: json.RawMessage(schemaBytes),
				Strict: true,
			},
		},
	}

	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, g.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, failed("no choices in response")
	}
	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		return nil, failed("response truncated at %d tokens", g.maxTokens)
	}

	content := []byte(resp.Choices[0].Message.Content)
	if err := validateContent(sch, content); err != nil {
		return nil, failed("%v", err)
	}

	set, err := decode(shape, req.ExerciseType, content)
	if err != nil {
		return nil, failed("%v", err)
	}
	if err := set.Validate(shape); err != nil {
		return nil, failed("generated exercise is malformed: %v", err)
	}

	g.logger.Info("Generated exercise",
		slog.String("exercise_id", set.ID),
		slog.String("exercise_type", string(req.ExerciseType)),
		slog.String("level", string(req.ProficiencyLevel)),
		slog.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return set, nil
}

// decode turns validated model output into an ExerciseSet with fresh ids.
func decode(shape model.ExerciseShape, exerciseType model.ExerciseType, content []byte) (*model.ExerciseSet, error) {
	set := &model.ExerciseSet{ID: uuid.NewString()}

	switch shape {
	case model.ShapeParagraph:
		var out generatedParagraph
		if err := json.Unmarshal(content, &out); err != nil {
			return nil, fmt.Errorf("decode paragraph exercise: %w", err)
		}
		set.Title = strings.TrimSpace(out.Title)
		set.Paragraph = out.Paragraph
		for _, q := range out.Questions {
			pq := model.ParagraphQuestion{
				ID:            uuid.NewString(),
				BlankNumber:   q.BlankNumber,
				BaseForm:      strings.TrimSpace(q.BaseForm),
				CorrectAnswer: trimAll(q.CorrectAnswer),
				Explanation:   strings.TrimSpace(q.Explanation),
			}
			if exerciseType == model.ExerciseTypeNounDeclension {
				plural := q.IsPlural
				pq.IsPlural = &plural
			}
			set.Questions = append(set.Questions, pq)
		}
	case model.ShapeSentence:
		var out generatedSentences
		if err := json.Unmarshal(content, &out); err != nil {
			return nil, fmt.Errorf("decode sentence exercise: %w", err)
		}
		set.Title = strings.TrimSpace(out.Title)
		for _, e := range out.Exercises {
			se := model.SentenceExercise{
				ID:            uuid.NewString(),
				Text:          e.Text,
				CorrectAnswer: trimAll(e.CorrectAnswer),
				Explanation:   strings.TrimSpace(e.Explanation),
			}
			if exerciseType == model.ExerciseTypeVerbAspect {
				se.Options = trimAll(e.Options)
				se.CorrectChoice = e.CorrectChoice
			}
			set.Exercises = append(set.Exercises, se)
		}
	}
	return set, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func (g *OpenAIGenerator) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			g.logger.Warn("Generation rate limited", slog.Any("error", err))
			return failed("rate limited: %v", err)
		case apiErr.HTTPStatusCode >= 500:
			return failed("provider unavailable: %v", err)
		}
	}
	return failed("%v", err)
}
