// internal/model/exercise.go
package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ExerciseType names a family of grammar exercises.
type ExerciseType string

const (
	ExerciseTypeVerbTenses            ExerciseType = "verbTenses"
	ExerciseTypeNounDeclension        ExerciseType = "nounDeclension"
	ExerciseTypeVerbAspect            ExerciseType = "verbAspect"
	ExerciseTypeInterrogativePronouns ExerciseType = "interrogativePronouns"
)

// ExerciseShape distinguishes paragraph (fill the blanks) sets from sentence sets.
type ExerciseShape string

const (
	ShapeParagraph ExerciseShape = "paragraph"
	ShapeSentence  ExerciseShape = "sentence"
)

var exerciseShapes = map[ExerciseType]ExerciseShape{
	ExerciseTypeVerbTenses:            ShapeParagraph,
	ExerciseTypeNounDeclension:        ShapeParagraph,
	ExerciseTypeVerbAspect:            ShapeSentence,
	ExerciseTypeInterrogativePronouns: ShapeSentence,
}

// ExerciseTypes returns every supported type in a stable order.
func ExerciseTypes() []ExerciseType {
	types := make([]ExerciseType, 0, len(exerciseShapes))
	for t := range exerciseShapes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Shape returns the exercise shape for t, or an ErrConfiguration error for unknown types.
func (t ExerciseType) Shape() (ExerciseShape, error) {
	shape, ok := exerciseShapes[t]
	if !ok {
		return "", fmt.Errorf("unsupported exercise type %q: %w", string(t), ErrConfiguration)
	}
	return shape, nil
}

func (t ExerciseType) IsValid() bool {
	_, ok := exerciseShapes[t]
	return ok
}

// ProficiencyLevel is a CEFR tier such as "A1" or "A2.1".
type ProficiencyLevel string

var proficiencyLevels = []ProficiencyLevel{"A1", "A2.1", "A2.2", "B1.1"}

func ProficiencyLevels() []ProficiencyLevel {
	out := make([]ProficiencyLevel, len(proficiencyLevels))
	copy(out, proficiencyLevels)
	return out
}

func (l ProficiencyLevel) IsValid() bool {
	for _, v := range proficiencyLevels {
		if v == l {
			return true
		}
	}
	return false
}

// Aspect choices for verbAspect exercises.
const (
	AspectImperfective = "imperfective"
	AspectPerfective   = "perfective"
)

// AnswerList holds the acceptable surface forms of an answer. In JSON it may be
// written either as a single string or as an array of strings.
type AnswerList []string

func (a *AnswerList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = AnswerList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("correctAnswer must be a string or an array of strings: %w", err)
	}
	*a = AnswerList(many)
	return nil
}

// ParagraphQuestion is one numbered blank of a paragraph exercise.
type ParagraphQuestion struct {
	ID            string     `json:"id"`
	BlankNumber   int        `json:"blankNumber"`
	BaseForm      string     `json:"baseForm"`
	CorrectAnswer AnswerList `json:"correctAnswer"`
	Explanation   string     `json:"explanation"`
	IsPlural      *bool      `json:"isPlural,omitempty"`
}

// SentenceExercise is one sentence item. Options and CorrectChoice are only set
// for the aspect variant.
type SentenceExercise struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	CorrectAnswer AnswerList `json:"correctAnswer"`
	Explanation   string     `json:"explanation"`
	Options       []string   `json:"options,omitempty"`
	CorrectChoice string     `json:"correctChoice,omitempty"`
}

// ExerciseSet is the canonical exercise. Paragraph sets fill Paragraph and
// Questions, sentence sets fill Exercises; the exercise type decides which.
type ExerciseSet struct {
	ID        string              `json:"id"`
	Title     string              `json:"title,omitempty"`
	Paragraph string              `json:"paragraph,omitempty"`
	Questions []ParagraphQuestion `json:"questions,omitempty"`
	Exercises []SentenceExercise  `json:"exercises,omitempty"`
}

var blankMarker = regexp.MustCompile(`___(\d+)___`)

// BlankNumbers returns the blank numbers referenced by the paragraph text, in order of appearance.
func BlankNumbers(paragraph string) []int {
	matches := blankMarker.FindAllStringSubmatch(paragraph, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Validate checks the structural invariants of the set for the given shape.
// The returned error describes the first violation found; callers wrap it with
// the sentinel that fits their context.
func (e *ExerciseSet) Validate(shape ExerciseShape) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("exercise set has no id")
	}
	seen := make(map[string]bool)
	checkItem := func(id string, answers AnswerList) error {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("exercise set %s: item without id", e.ID)
		}
		if seen[id] {
			return fmt.Errorf("exercise set %s: duplicate item id %q", e.ID, id)
		}
		seen[id] = true
		if len(answers) == 0 {
			return fmt.Errorf("exercise set %s: item %s has no correct answer", e.ID, id)
		}
		for _, a := range answers {
			if strings.TrimSpace(a) == "" {
				return fmt.Errorf("exercise set %s: item %s has an empty correct answer", e.ID, id)
			}
		}
		return nil
	}

	switch shape {
	case ShapeParagraph:
		if len(e.Questions) == 0 {
			return fmt.Errorf("exercise set %s: paragraph set has no questions", e.ID)
		}
		blanks := make(map[int]bool)
		for _, q := range e.Questions {
			if err := checkItem(q.ID, q.CorrectAnswer); err != nil {
				return err
			}
			if q.BlankNumber < 1 {
				return fmt.Errorf("exercise set %s: question %s has blank number %d", e.ID, q.ID, q.BlankNumber)
			}
			if blanks[q.BlankNumber] {
				return fmt.Errorf("exercise set %s: blank %d used twice", e.ID, q.BlankNumber)
			}
			blanks[q.BlankNumber] = true
		}
		markers := BlankNumbers(e.Paragraph)
		inText := make(map[int]bool, len(markers))
		for _, n := range markers {
			inText[n] = true
		}
		if len(inText) != len(blanks) {
			return fmt.Errorf("exercise set %s: paragraph has %d blanks but %d questions", e.ID, len(inText), len(blanks))
		}
		for n := 1; n <= len(blanks); n++ {
			if !blanks[n] || !inText[n] {
				return fmt.Errorf("exercise set %s: blank numbers are not contiguous at %d", e.ID, n)
			}
		}
	case ShapeSentence:
		if len(e.Exercises) == 0 {
			return fmt.Errorf("exercise set %s: sentence set has no exercises", e.ID)
		}
		for _, s := range e.Exercises {
			if err := checkItem(s.ID, s.CorrectAnswer); err != nil {
				return err
			}
			if s.CorrectChoice != "" && s.CorrectChoice != AspectImperfective && s.CorrectChoice != AspectPerfective {
				return fmt.Errorf("exercise set %s: item %s has unknown choice %q", e.ID, s.ID, s.CorrectChoice)
			}
			if s.CorrectChoice != "" && len(s.Options) != 2 {
				return fmt.Errorf("exercise set %s: item %s needs exactly two options", e.ID, s.ID)
			}
		}
	default:
		return fmt.Errorf("unknown exercise shape %q", shape)
	}
	return nil
}

// Solutions returns the answer key of every item in the set.
func (e *ExerciseSet) Solutions() []Solution {
	out := make([]Solution, 0, len(e.Questions)+len(e.Exercises))
	for _, q := range e.Questions {
		out = append(out, Solution{QuestionID: q.ID, CorrectAnswers: append([]string(nil), q.CorrectAnswer...), Explanation: q.Explanation})
	}
	for _, s := range e.Exercises {
		out = append(out, Solution{QuestionID: s.ID, CorrectAnswers: append([]string(nil), s.CorrectAnswer...), Explanation: s.Explanation})
	}
	return out
}

// Clone returns a deep copy so cached values are never shared with callers.
func (e *ExerciseSet) Clone() *ExerciseSet {
	if e == nil {
		return nil
	}
	c := *e
	c.Questions = make([]ParagraphQuestion, len(e.Questions))
	for i, q := range e.Questions {
		q.CorrectAnswer = append(AnswerList(nil), q.CorrectAnswer...)
		if q.IsPlural != nil {
			v := *q.IsPlural
			q.IsPlural = &v
		}
		c.Questions[i] = q
	}
	c.Exercises = make([]SentenceExercise, len(e.Exercises))
	for i, s := range e.Exercises {
		s.CorrectAnswer = append(AnswerList(nil), s.CorrectAnswer...)
		s.Options = append([]string(nil), s.Options...)
		c.Exercises[i] = s
	}
	if len(e.Questions) == 0 {
		c.Questions = nil
	}
	if len(e.Exercises) == 0 {
		c.Exercises = nil
	}
	return &c
}
