package progress

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"vjezbajmo/internal/model"
	"vjezbajmo/internal/repository"
	"vjezbajmo/internal/repository/mocks"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

func score(correct, total int) *model.Score {
	return &model.Score{Correct: correct, Total: total}
}

func completion(id string, typ model.ExerciseType, level model.ProficiencyLevel, theme *string, s *model.Score) model.CompletionInput {
	return model.CompletionInput{ExerciseID: id, ExerciseType: typ, ProficiencyLevel: level, Theme: theme, Score: s, Title: "Naslov " + id}
}

func openTestDB(t *testing.T) *gorm.DB {
	db, err := repository.NewDB(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = repository.CloseDB(db) })
	return db
}

// LedgerTestSuite runs the ledger against in-memory sqlite for both backends.
type LedgerTestSuite struct {
	suite.Suite
	ctx        context.Context
	localDB    *gorm.DB
	remoteDB   *gorm.DB
	remoteRepo repository.ProgressRepository
	ledger     *ledger
	now        time.Time

	device  model.Identity
	account model.Identity
}

func (s *LedgerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.localDB = openTestDB(s.T())
	s.remoteDB = openTestDB(s.T())
	s.remoteRepo = repository.NewGormProgressRepository()
	s.now = time.Time{}
	s.ledger = s.newLedger(s.remoteRepo)
	s.device = model.Identity{DeviceID: "device-1"}
	s.account = model.Identity{DeviceID: "device-1", UserID: "user-1"}
}

func (s *LedgerTestSuite) newLedger(remoteRepo repository.ProgressRepository) *ledger {
	l := NewLedger(s.localDB, s.remoteDB, repository.NewGormLocalStorageRepository(), remoteRepo,
		30*24*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil))).(*ledger)
	if s.now.IsZero() {
		s.now = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	}
	l.now = func() time.Time { return s.now }
	return l
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (s *LedgerTestSuite) recordsOf(identity model.Identity) map[string]model.CompletedExerciseRecord {
	out := make(map[string]model.CompletedExerciseRecord)
	for _, r := range s.ledger.loadAll(s.ctx, identity) {
		out[r.RecordKey()] = r
	}
	return out
}

// --- MarkExerciseCompleted ---

func (s *LedgerTestSuite) TestRepeatCompletionRaisesBestScore() {
	for _, identity := range []model.Identity{s.device, s.account} {
		l := s.ledger
		s.Require().NoError(l.MarkExerciseCompleted(s.ctx, completion("e1", model.ExerciseTypeVerbTenses, "A1", nil, score(8, 10)), identity))
		s.Require().NoError(l.MarkExerciseCompleted(s.ctx, completion("e1", model.ExerciseTypeVerbTenses, "A1", nil, score(9, 10)), identity))

		rec := s.recordsOf(identity)["verbTenses:e1"]
		s.Equal(2, rec.AttemptNumber, identity)
		s.Equal(90, rec.BestScore, identity)
		s.Equal(model.Score{Correct: 9, Total: 10, Percentage: 90}, rec.Score)

		s.Require().NoError(l.MarkExerciseCompleted(s.ctx, completion("e1", model.ExerciseTypeVerbTenses, "A1", nil, score(5, 10)), identity))
		rec = s.recordsOf(identity)["verbTenses:e1"]
		s.Equal(3, rec.AttemptNumber)
		s.Equal(90, rec.BestScore, "best score is never lowered")
		s.Equal(50, rec.Score.Percentage)
	}
}

func (s *LedgerTestSuite) TestCompletionWithoutScore() {
	s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("e1", model.ExerciseTypeVerbAspect, "A1", nil, nil), s.device))

	rec := s.recordsOf(s.device)["verbAspect:e1"]
	s.Equal(1, rec.AttemptNumber)
	s.Equal(0, rec.BestScore)
	s.Equal("Naslov e1", rec.Title)
	s.Equal(s.now, rec.CompletedAt)
}

func (s *LedgerTestSuite) TestSameIDDifferentTypesAreSeparateRecords() {
	s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("1", model.ExerciseTypeVerbTenses, "A1", nil, score(1, 1)), s.device))
	s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("1", model.ExerciseTypeNounDeclension, "A1", nil, score(1, 1)), s.device))

	records := s.recordsOf(s.device)
	s.Len(records, 2)
	s.Equal(1, records["verbTenses:1"].AttemptNumber)
	s.Equal(1, records["nounDeclension:1"].AttemptNumber)
}

func (s *LedgerTestSuite) TestMarkRejectsBadInput() {
	err := s.ledger.MarkExerciseCompleted(s.ctx, completion("e1", model.ExerciseTypeVerbTenses, "A1", nil, nil), model.Identity{})
	s.ErrorIs(err, model.ErrInvalidInput)

	err = s.ledger.MarkExerciseCompleted(s.ctx, completion("", model.ExerciseTypeVerbTenses, "A1", nil, nil), s.device)
	s.ErrorIs(err, model.ErrInvalidInput)

	err = s.ledger.MarkExerciseCompleted(s.ctx, completion("e1", "adjectives", "A1", nil, nil), s.device)
	s.ErrorIs(err, model.ErrConfiguration)
}

// --- GetCompletedExercises ---

func (s *LedgerTestSuite) TestCompletedExercisesFilters() {
	for _, identity := range []model.Identity{s.device, s.account} {
		l := s.ledger
		s.Require().NoError(l.MarkExerciseCompleted(s.ctx, completion("a", model.ExerciseTypeVerbTenses, "A1", nil, nil), identity))
		s.Require().NoError(l.MarkExerciseCompleted(s.ctx, completion("b", model.ExerciseTypeVerbTenses, "A1", strPtr(" Sport "), nil), identity))
		s.Require().NoError(l.MarkExerciseCompleted(s.ctx, completion("c", model.ExerciseTypeVerbTenses, "A2.1", nil, nil), identity))
		s.Require().NoError(l.MarkExerciseCompleted(s.ctx, completion("d", model.ExerciseTypeVerbAspect, "A1", nil, nil), identity))

		get := func(theme *string) []string {
			ids := l.GetCompletedExercises(s.ctx, model.ExerciseTypeVerbTenses, "A1", theme, identity)
			sort.Strings(ids)
			return ids
		}
		s.Equal([]string{"a", "b"}, get(nil), "nil theme matches every theme")
		s.Equal([]string{"b"}, get(strPtr("sport")))
		s.Equal([]string{"b"}, get(strPtr("SPORT")))
		s.Equal([]string{}, get(strPtr("hrana")))
	}
	s.Empty(s.ledger.GetCompletedExercises(s.ctx, model.ExerciseTypeVerbTenses, "A1", nil, model.Identity{}))
}

func (s *LedgerTestSuite) TestAuthenticatedReadsIgnoreLocalRecords() {
	s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("local", model.ExerciseTypeVerbTenses, "A1", nil, nil), s.device))

	s.Equal([]string{"local"}, s.ledger.GetCompletedExercises(s.ctx, model.ExerciseTypeVerbTenses, "A1", nil, s.device))
	s.Empty(s.ledger.GetCompletedExercises(s.ctx, model.ExerciseTypeVerbTenses, "A1", nil, s.account))
}

// --- staleness sweep ---

func (s *LedgerTestSuite) TestStaleRecordsAreSweptLazily() {
	for _, identity := range []model.Identity{s.device, s.account} {
		start := s.now
		s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("old", model.ExerciseTypeVerbTenses, "A1", nil, nil), identity))
		s.now = start.Add(20 * 24 * time.Hour)
		s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("new", model.ExerciseTypeVerbTenses, "A1", nil, nil), identity))

		s.now = start.Add(31 * 24 * time.Hour)
		s.Equal([]string{"new"}, s.ledger.GetCompletedExercises(s.ctx, model.ExerciseTypeVerbTenses, "A1", nil, identity))
		s.now = start
	}

	raw, err := repository.NewGormLocalStorageRepository().Get(s.ctx, s.localDB, s.device.DeviceID, LocalNamespace)
	s.Require().NoError(err)
	s.NotContains(raw, `"old"`, "swept records are removed from storage")
}

// --- MigrateLocalProgressToUser ---

func (s *LedgerTestSuite) TestMigrationMergesOnce() {
	s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("e1", model.ExerciseTypeVerbTenses, "A1", nil, score(6, 10)), s.device))
	s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("e1", model.ExerciseTypeVerbTenses, "A1", nil, score(7, 10)), s.device))
	s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("e2", model.ExerciseTypeVerbAspect, "A1", nil, score(10, 10)), s.device))

	// The account already finished e1 once with a better score elsewhere.
	s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("e1", model.ExerciseTypeVerbTenses, "A1", nil, score(95, 100)), model.Identity{UserID: "user-1", DeviceID: "device-2"}))

	migrated, err := s.ledger.MigrateLocalProgressToUser(s.ctx, s.account)
	s.Require().NoError(err)
	s.True(migrated)

	after := s.recordsOf(s.account)
	s.Len(after, 2)
	s.Equal(2, after["verbTenses:e1"].AttemptNumber)
	s.Equal(95, after["verbTenses:e1"].BestScore)
	s.Equal(1, after["verbAspect:e2"].AttemptNumber)
	s.Equal(100, after["verbAspect:e2"].BestScore)

	migrated, err = s.ledger.MigrateLocalProgressToUser(s.ctx, s.account)
	s.Require().NoError(err)
	s.False(migrated)

	again := s.recordsOf(s.account)
	for k, r := range after {
		s.Equal(r.AttemptNumber, again[k].AttemptNumber, k)
		s.Equal(r.BestScore, again[k].BestScore, k)
	}
	s.Len(again, len(after))
}

func (s *LedgerTestSuite) TestMigrationWithoutLocalRecords() {
	migrated, err := s.ledger.MigrateLocalProgressToUser(s.ctx, s.account)
	s.NoError(err)
	s.False(migrated)
}

func (s *LedgerTestSuite) TestMigrationNeedsDeviceAndUser() {
	_, err := s.ledger.MigrateLocalProgressToUser(s.ctx, s.device)
	s.ErrorIs(err, model.ErrInvalidInput)
	_, err = s.ledger.MigrateLocalProgressToUser(s.ctx, model.Identity{UserID: "user-1"})
	s.ErrorIs(err, model.ErrInvalidInput)
}

// failingCreateRepo fails every record insert after the migration marker was written.
type failingCreateRepo struct {
	repository.ProgressRepository
}

func (failingCreateRepo) Create(context.Context, *gorm.DB, *model.CompletedExerciseRecord) error {
	return errors.New("disk full")
}

func (s *LedgerTestSuite) TestMigrationIsAllOrNothing() {
	s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("e1", model.ExerciseTypeVerbTenses, "A1", nil, score(1, 2)), s.device))

	broken := s.newLedger(failingCreateRepo{s.remoteRepo})
	migrated, err := broken.MigrateLocalProgressToUser(s.ctx, s.account)
	s.Error(err)
	s.False(migrated)
	s.Empty(s.recordsOf(s.account))

	// The marker was rolled back, so a retry succeeds.
	migrated, err = s.ledger.MigrateLocalProgressToUser(s.ctx, s.account)
	s.NoError(err)
	s.True(migrated)
	s.Len(s.recordsOf(s.account), 1)
}

// --- GetPerformanceStats ---

func (s *LedgerTestSuite) TestPerformanceStats() {
	start := s.now
	inputs := []model.CompletionInput{
		completion("1", model.ExerciseTypeVerbTenses, "A1", nil, score(8, 10)),
		completion("2", model.ExerciseTypeVerbTenses, "A1", nil, score(5, 10)),
		completion("3", model.ExerciseTypeVerbAspect, "A1", nil, score(3, 3)),
	}
	for i, in := range inputs {
		s.now = start.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, in, s.device))
	}

	stats := s.ledger.GetPerformanceStats(s.ctx, s.device, nil)
	s.Equal(3, stats.TotalCompleted)
	s.Equal(77, stats.AverageScore)
	s.Equal(model.TypeStats{Completed: 2, AverageScore: 65}, stats.PerExerciseTypeStats[model.ExerciseTypeVerbTenses])
	s.Equal(model.TypeStats{Completed: 1, AverageScore: 100}, stats.PerExerciseTypeStats[model.ExerciseTypeVerbAspect])
	s.Require().Len(stats.RecentActivity, 3)
	s.Equal("3", stats.RecentActivity[0].ExerciseID)
	s.Equal("1", stats.RecentActivity[2].ExerciseID)

	typ := model.ExerciseTypeVerbAspect
	filtered := s.ledger.GetPerformanceStats(s.ctx, s.device, &typ)
	s.Equal(1, filtered.TotalCompleted)
	s.Len(filtered.PerExerciseTypeStats, 1)
}

func (s *LedgerTestSuite) TestPerformanceStatsRecentActivityIsCapped() {
	start := s.now
	for i := 0; i < 12; i++ {
		s.now = start.Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion(string(rune('a'+i)), model.ExerciseTypeVerbTenses, "A1", nil, nil), s.account))
	}
	stats := s.ledger.GetPerformanceStats(s.ctx, s.account, nil)
	s.Equal(12, stats.TotalCompleted)
	s.Len(stats.RecentActivity, 10)
	s.Equal("l", stats.RecentActivity[0].ExerciseID)
}

func (s *LedgerTestSuite) TestPerformanceStatsEmpty() {
	stats := s.ledger.GetPerformanceStats(s.ctx, model.Identity{}, nil)
	s.Equal(0, stats.TotalCompleted)
	s.NotNil(stats.PerExerciseTypeStats)
	s.NotNil(stats.RecentActivity)
}

// --- ClearAllProgress ---

func (s *LedgerTestSuite) TestClearAllProgress() {
	s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("l", model.ExerciseTypeVerbTenses, "A1", nil, nil), s.device))
	s.Require().NoError(s.ledger.MarkExerciseCompleted(s.ctx, completion("r", model.ExerciseTypeVerbTenses, "A1", nil, nil), s.account))

	s.Require().NoError(s.ledger.ClearAllProgress(s.ctx, s.account))
	s.Empty(s.recordsOf(s.device))
	s.Empty(s.recordsOf(s.account))

	s.ErrorIs(s.ledger.ClearAllProgress(s.ctx, model.Identity{}), model.ErrInvalidInput)
}

// --- storage failures ---

func TestLedger_LocalStorageFailsOpen(t *testing.T) {
	ctx := context.Background()
	localRepo := mocks.NewLocalStorageRepository(t)
	remoteRepo := mocks.NewProgressRepository(t)
	l := NewLedger(nil, nil, localRepo, remoteRepo, 30*24*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	device := model.Identity{DeviceID: "d1"}
	storageErr := errors.New("quota exceeded")

	localRepo.On("Get", ctx, mock.Anything, "d1", LocalNamespace).Return("", storageErr)
	localRepo.On("Put", ctx, mock.Anything, "d1", LocalNamespace, mock.AnythingOfType("string")).Return(storageErr).Once()

	if ids := l.GetCompletedExercises(ctx, model.ExerciseTypeVerbTenses, "A1", nil, device); len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
	if err := l.MarkExerciseCompleted(ctx, completion("e1", model.ExerciseTypeVerbTenses, "A1", nil, nil), device); err != nil {
		t.Fatalf("storage errors must not surface: %v", err)
	}
	if stats := l.GetPerformanceStats(ctx, device, nil); stats.TotalCompleted != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}
}

func TestLedger_RemoteReadFailsOpen(t *testing.T) {
	ctx := context.Background()
	localRepo := mocks.NewLocalStorageRepository(t)
	remoteRepo := mocks.NewProgressRepository(t)
	l := NewLedger(nil, nil, localRepo, remoteRepo, 30*24*time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	account := model.Identity{UserID: "u1"}

	remoteRepo.On("DeleteCompletedBefore", ctx, mock.Anything, "u1", mock.AnythingOfType("time.Time")).Return(int64(0), errors.New("connection refused"))
	remoteRepo.On("FindByUser", ctx, mock.Anything, "u1", mock.AnythingOfType("repository.RecordFilter")).Return(nil, errors.New("connection refused"))

	if ids := l.GetCompletedExercises(ctx, model.ExerciseTypeVerbTenses, "A1", nil, account); len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
	if stats := l.GetPerformanceStats(ctx, account, nil); stats.TotalCompleted != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}
}
