// internal/service/exercise_service_test.go
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"
	"time"

	"vjezbajmo/internal/cache"
	"vjezbajmo/internal/config"
	genmocks "vjezbajmo/internal/generation/mocks"
	"vjezbajmo/internal/model"
	progmocks "vjezbajmo/internal/progress/mocks"
	"vjezbajmo/internal/worksheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const catalogFixture = `{
  "exerciseType": "verbTenses",
  "worksheets": [
    {"id": "w1", "title": "Prvi", "level": "A1", "paragraph": "Ja ___1___ kavu.",
     "questions": [{"id": "w1-q1", "blankNumber": 1, "baseForm": "piti", "correctAnswer": "pijem", "explanation": "Prezent."}]},
    {"id": "w2", "title": "Drugi", "level": "A1", "paragraph": "Ti ___1___.",
     "questions": [{"id": "w2-q1", "blankNumber": 1, "baseForm": "čitati", "correctAnswer": "čitaš"}]}
  ]
}`

var (
	testIdentity = model.Identity{DeviceID: "device-1"}
	a1           = model.ProficiencyLevel("A1")
	noTheme      *string
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type selectorFixture struct {
	svc       ExerciseService
	cache     *cache.MemoryProvider
	ledger    *progmocks.Ledger
	generator *genmocks.Generator
}

func newSelectorFixture(t *testing.T, opts ExerciseServiceOptions) *selectorFixture {
	t.Helper()
	repo, err := worksheet.NewRepository(fstest.MapFS{
		"data/verbTenses.json": &fstest.MapFile{Data: []byte(catalogFixture)},
	})
	require.NoError(t, err)

	f := &selectorFixture{
		cache:     cache.NewMemoryProvider(7*24*time.Hour, time.Hour, testLogger()),
		ledger:    progmocks.NewLedger(t),
		generator: genmocks.NewGenerator(t),
	}
	f.svc = NewExerciseService(repo, f.cache, f.ledger, f.generator, opts)
	return f
}

func (f *selectorFixture) completed(ids ...string) {
	f.ledger.On("GetCompletedExercises", mock.Anything, model.ExerciseTypeVerbTenses, a1, noTheme, testIdentity).Return(ids)
}

func generatedSet(id string) *model.ExerciseSet {
	return &model.ExerciseSet{
		ID:        id,
		Title:     "Generirano",
		Paragraph: "Oni ___1___ kući.",
		Questions: []model.ParagraphQuestion{
			{ID: id + "-q1", BlankNumber: 1, BaseForm: "ići", CorrectAnswer: model.AnswerList{"idu"}},
		},
	}
}

func (f *selectorFixture) seedCache(ids ...string) model.CacheKey {
	key := model.NewCacheKey(model.ExerciseTypeVerbTenses, a1, nil)
	for _, id := range ids {
		f.cache.SetCachedExercise(context.Background(), key, model.CachedExercise{
			Exercise:         *generatedSet(id),
			ExerciseType:     model.ExerciseTypeVerbTenses,
			ProficiencyLevel: a1,
			CreatedAt:        time.Now(),
		})
	}
	return key
}

func selectA1(theme *string) model.SelectRequest {
	return model.SelectRequest{ExerciseType: model.ExerciseTypeVerbTenses, ProficiencyLevel: a1, Theme: theme}
}

func cachedIDs(entries []model.CachedExercise) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Exercise.ID)
	}
	return out
}

// --- Test SelectExercise ---

func TestSelectExercise_StaticFirst(t *testing.T) {
	f := newSelectorFixture(t, ExerciseServiceOptions{})
	f.completed("w1")
	f.seedCache("c1")

	sel, err := f.svc.SelectExercise(context.Background(), selectA1(nil), testIdentity)
	require.NoError(t, err)

	assert.Equal(t, model.SourceStatic, sel.Source)
	assert.Equal(t, "w2", sel.Exercise.ID)

	solution, ok := f.cache.GetSolution(context.Background(), "w2-q1")
	require.True(t, ok, "served solutions are stored for answer checking")
	assert.Equal(t, []string{"čitaš"}, solution.CorrectAnswers)
}

func TestSelectExercise_CacheOldestUncompleted(t *testing.T) {
	f := newSelectorFixture(t, ExerciseServiceOptions{})
	f.completed("w1", "w2", "c1")
	f.seedCache("c1", "c2", "c3")

	sel, err := f.svc.SelectExercise(context.Background(), selectA1(nil), testIdentity)
	require.NoError(t, err)

	assert.Equal(t, model.SourceCache, sel.Source)
	assert.Equal(t, "c2", sel.Exercise.ID)
}

func TestSelectExercise_ThemePartitionsCache(t *testing.T) {
	f := newSelectorFixture(t, ExerciseServiceOptions{})
	f.completed("w1", "w2")
	f.seedCache("c1")
	theme := "Putovanje"
	f.generator.On("Generate", mock.Anything, model.GenerationRequest{
		ExerciseType: model.ExerciseTypeVerbTenses, ProficiencyLevel: a1, Theme: &theme,
	}).Return(generatedSet("g-theme"), nil).Once()

	sel, err := f.svc.SelectExercise(context.Background(), selectA1(&theme), testIdentity)
	require.NoError(t, err)
	f.svc.Wait()

	assert.Equal(t, model.SourceGenerated, sel.Source)
	themed := f.cache.GetCachedExercises(context.Background(), model.NewCacheKey(model.ExerciseTypeVerbTenses, a1, &theme))
	assert.Equal(t, []string{"g-theme"}, cachedIDs(themed))
}

func TestSelectExercise_GeneratesAndWritesBack(t *testing.T) {
	f := newSelectorFixture(t, ExerciseServiceOptions{})
	f.completed("w1", "w2")
	f.generator.On("Generate", mock.Anything, mock.Anything).Return(generatedSet("g1"), nil).Once()

	sel, err := f.svc.SelectExercise(context.Background(), selectA1(nil), testIdentity)
	require.NoError(t, err)
	assert.Equal(t, model.SourceGenerated, sel.Source)
	assert.Equal(t, "g1", sel.Exercise.ID)

	f.svc.Wait()
	key := model.NewCacheKey(model.ExerciseTypeVerbTenses, a1, nil)
	assert.Equal(t, []string{"g1"}, cachedIDs(f.cache.GetCachedExercises(context.Background(), key)))
}

func TestSelectExercise_WriteBackOutlivesRequest(t *testing.T) {
	f := newSelectorFixture(t, ExerciseServiceOptions{})
	f.completed("w1", "w2")
	f.generator.On("Generate", mock.Anything, mock.Anything).Return(generatedSet("g1"), nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	_, err := f.svc.SelectExercise(ctx, selectA1(nil), testIdentity)
	require.NoError(t, err)
	cancel()

	f.svc.Wait()
	key := model.NewCacheKey(model.ExerciseTypeVerbTenses, a1, nil)
	assert.Len(t, f.cache.GetCachedExercises(context.Background(), key), 1)
}

func TestSelectExercise_AssignsMissingID(t *testing.T) {
	f := newSelectorFixture(t, ExerciseServiceOptions{})
	f.completed("w1", "w2")
	set := generatedSet("")
	f.generator.On("Generate", mock.Anything, mock.Anything).Return(set, nil).Once()

	sel, err := f.svc.SelectExercise(context.Background(), selectA1(nil), testIdentity)
	require.NoError(t, err)
	f.svc.Wait()
	assert.NotEmpty(t, sel.Exercise.ID)
}

func TestSelectExercise_GenerationFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(g *genmocks.Generator)
	}{
		{
			name: "collaborator error",
			setup: func(g *genmocks.Generator) {
				g.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("upstream down")).Once()
			},
		},
		{
			name: "timeout",
			setup: func(g *genmocks.Generator) {
				g.On("Generate", mock.Anything, mock.Anything).
					Return(func(ctx context.Context, _ model.GenerationRequest) (*model.ExerciseSet, error) {
						<-ctx.Done()
						return nil, ctx.Err()
					}).Once()
			},
		},
		{
			name: "malformed exercise",
			setup: func(g *genmocks.Generator) {
				bad := generatedSet("g-bad")
				bad.Paragraph = "bez praznina"
				g.On("Generate", mock.Anything, mock.Anything).Return(bad, nil).Once()
			},
		},
		{
			name: "already completed id",
			setup: func(g *genmocks.Generator) {
				g.On("Generate", mock.Anything, mock.Anything).Return(generatedSet("w1"), nil).Once()
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSelectorFixture(t, ExerciseServiceOptions{GenerationTimeout: 20 * time.Millisecond})
			f.completed("w1", "w2")
			tt.setup(f.generator)

			sel, err := f.svc.SelectExercise(context.Background(), selectA1(nil), testIdentity)
			f.svc.Wait()

			assert.Nil(t, sel)
			assert.ErrorIs(t, err, model.ErrGenerationFailed)
			var appErr *model.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "GENERATION_FAILED", appErr.Detail.Code)
			key := model.NewCacheKey(model.ExerciseTypeVerbTenses, a1, nil)
			assert.Empty(t, f.cache.GetCachedExercises(context.Background(), key))
		})
	}
}

func TestSelectExercise_NeverServesCompleted(t *testing.T) {
	completed := []string{"w1", "w2", "c1", "c2"}
	f := newSelectorFixture(t, ExerciseServiceOptions{})
	f.completed(completed...)
	f.seedCache("c1", "c2")
	f.generator.On("Generate", mock.Anything, mock.Anything).Return(generatedSet("g7"), nil).Once()

	sel, err := f.svc.SelectExercise(context.Background(), selectA1(nil), testIdentity)
	require.NoError(t, err)
	f.svc.Wait()
	assert.NotContains(t, completed, sel.Exercise.ID)
}

func TestSelectExercise_RejectsBadPartition(t *testing.T) {
	f := newSelectorFixture(t, ExerciseServiceOptions{})

	_, err := f.svc.SelectExercise(context.Background(), model.SelectRequest{ExerciseType: "adjectives", ProficiencyLevel: a1}, testIdentity)
	assert.ErrorIs(t, err, model.ErrConfiguration)

	_, err = f.svc.SelectExercise(context.Background(), model.SelectRequest{ExerciseType: model.ExerciseTypeVerbTenses, ProficiencyLevel: "C2"}, testIdentity)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

// --- Test RecordCompletion ---

func TestRecordCompletion_InvalidationPolicy(t *testing.T) {
	tests := []struct {
		policy   string
		wantLeft []string
	}{
		{policy: config.InvalidationPerUser, wantLeft: []string{"c1", "c2"}},
		{policy: config.InvalidationEager, wantLeft: []string{"c2"}},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			f := newSelectorFixture(t, ExerciseServiceOptions{Invalidation: tt.policy})
			key := f.seedCache("c1", "c2")
			in := model.CompletionInput{
				ExerciseID:       "c1",
				ExerciseType:     model.ExerciseTypeVerbTenses,
				ProficiencyLevel: a1,
				Score:            &model.Score{Correct: 1, Total: 1},
			}
			f.ledger.On("MarkExerciseCompleted", mock.Anything, in, testIdentity).Return(nil).Once()

			require.NoError(t, f.svc.RecordCompletion(context.Background(), in, testIdentity))
			assert.Equal(t, tt.wantLeft, cachedIDs(f.cache.GetCachedExercises(context.Background(), key)))
		})
	}
}

func TestRecordCompletion_Errors(t *testing.T) {
	f := newSelectorFixture(t, ExerciseServiceOptions{Invalidation: config.InvalidationEager})
	key := f.seedCache("c1")

	err := f.svc.RecordCompletion(context.Background(), model.CompletionInput{
		ExerciseID: "c1", ExerciseType: model.ExerciseTypeVerbTenses, ProficiencyLevel: a1,
		Score: &model.Score{Correct: 3, Total: 2},
	}, testIdentity)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	in := model.CompletionInput{ExerciseID: "c1", ExerciseType: model.ExerciseTypeVerbTenses, ProficiencyLevel: a1}
	ledgerErr := model.NewAppError("IDENTITY_REQUIRED", "identity", "identity", model.ErrInvalidInput)
	f.ledger.On("MarkExerciseCompleted", mock.Anything, in, model.Identity{}).Return(ledgerErr).Once()
	err = f.svc.RecordCompletion(context.Background(), in, model.Identity{})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	assert.Len(t, f.cache.GetCachedExercises(context.Background(), key), 1, "failed completions do not invalidate")
}

// --- Test GetProgress / InvalidateCache ---

func TestGetProgress(t *testing.T) {
	f := newSelectorFixture(t, ExerciseServiceOptions{})
	f.completed("w2", "g1")

	got, err := f.svc.GetProgress(context.Background(), model.ExerciseTypeVerbTenses, a1, testIdentity)
	require.NoError(t, err)
	assert.Equal(t, model.ProgressSummary{Completed: 1, Total: 2}, got)
}

func TestInvalidateCache(t *testing.T) {
	f := newSelectorFixture(t, ExerciseServiceOptions{})
	key := f.seedCache("c1", "c2")

	require.NoError(t, f.svc.InvalidateCache(context.Background(), model.ExerciseTypeVerbTenses, a1, nil))
	assert.Empty(t, f.cache.GetCachedExercises(context.Background(), key))

	err := f.svc.InvalidateCache(context.Background(), "adjectives", a1, nil)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestListWorksheets(t *testing.T) {
	f := newSelectorFixture(t, ExerciseServiceOptions{})

	all, err := f.svc.ListWorksheets(context.Background(), model.ExerciseTypeVerbTenses)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListWorksheets(context.Background(), "adjectives")
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
