// Package progress tracks which exercises an identity has completed.
//
// Anonymous devices keep their records as one JSON document in the
// device-scoped local store. Authenticated accounts keep one row per record in
// the remote database. A device's records are merged into an account once.
//
//go:generate mockery --name Ledger --output ./mocks --outpkg mocks --case=underscore
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"vjezbajmo/internal/answer"
	"vjezbajmo/internal/model"
	"vjezbajmo/internal/repository"

	"gorm.io/gorm"
)

// LocalNamespace is the local storage key holding a device's records.
const LocalNamespace = "vjezbajmo-progress"

const recentActivityLimit = 10

type Ledger interface {
	GetCompletedExercises(ctx context.Context, exerciseType model.ExerciseType, level model.ProficiencyLevel, theme *string, identity model.Identity) []string
	MarkExerciseCompleted(ctx context.Context, in model.CompletionInput, identity model.Identity) error
	MigrateLocalProgressToUser(ctx context.Context, identity model.Identity) (bool, error)
	GetPerformanceStats(ctx context.Context, identity model.Identity, exerciseType *model.ExerciseType) model.PerformanceStats
	ClearAllProgress(ctx context.Context, identity model.Identity) error
}

type ledger struct {
	localDB    *gorm.DB
	remoteDB   *gorm.DB
	localRepo  repository.LocalStorageRepository
	remoteRepo repository.ProgressRepository
	retention  time.Duration
	now        func() time.Time
	logger     *slog.Logger

	// serializes read-modify-write of local documents
	localMu sync.Mutex
}

func NewLedger(
	localDB, remoteDB *gorm.DB,
	localRepo repository.LocalStorageRepository,
	remoteRepo repository.ProgressRepository,
	retention time.Duration,
	logger *slog.Logger,
) Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ledger{
		localDB:    localDB,
		remoteDB:   remoteDB,
		localRepo:  localRepo,
		remoteRepo: remoteRepo,
		retention:  retention,
		now:        time.Now,
		logger:     logger,
	}
}

var errAlreadyMigrated = errors.New("device already migrated")

func requireIdentity(identity model.Identity) error {
	if identity.IsZero() {
		return model.NewAppError("IDENTITY_REQUIRED", "A device id or an authenticated user is required.", "identity", model.ErrInvalidInput)
	}
	return nil
}

// normalizeTheme stores themes the same way cache keys see them; blank means none.
func normalizeTheme(theme *string) *string {
	t := model.NormalizeTheme(theme)
	if t == "" {
		return nil
	}
	return &t
}

func sameTheme(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (l *ledger) cutoff() time.Time {
	return l.now().UTC().Add(-l.retention)
}

// --- local backend ---

func (l *ledger) readLocal(ctx context.Context, deviceID string) ([]model.CompletedExerciseRecord, error) {
	raw, err := l.localRepo.Get(ctx, l.localDB, deviceID, LocalNamespace)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var records []model.CompletedExerciseRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode local progress: %w", err)
	}
	return records, nil
}

func (l *ledger) writeLocal(ctx context.Context, deviceID string, records []model.CompletedExerciseRecord) error {
	if records == nil {
		records = []model.CompletedExerciseRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode local progress: %w", err)
	}
	return l.localRepo.Put(ctx, l.localDB, deviceID, LocalNamespace, string(data))
}

// loadLocal returns the device's records with stale ones swept. Caller holds localMu.
func (l *ledger) loadLocal(ctx context.Context, deviceID string) []model.CompletedExerciseRecord {
	records, err := l.readLocal(ctx, deviceID)
	if err != nil {
		l.logger.WarnContext(ctx, "Local progress unavailable, treating as empty",
			slog.String("device_id", deviceID), slog.Any("error", errors.Join(model.ErrBackendUnavailable, err)))
		return nil
	}

	cutoff := l.cutoff()
	fresh := records[:0:0]
	for _, r := range records {
		if !r.CompletedAt.Before(cutoff) {
			fresh = append(fresh, r)
		}
	}
	if len(fresh) != len(records) {
		if err := l.writeLocal(ctx, deviceID, fresh); err != nil {
			l.logger.WarnContext(ctx, "Failed to sweep stale local progress", slog.String("device_id", deviceID), slog.Any("error", err))
		} else {
			l.logger.InfoContext(ctx, "Swept stale local progress", slog.String("device_id", deviceID), slog.Int("removed", len(records)-len(fresh)))
		}
	}
	return fresh
}

// --- remote backend ---

func (l *ledger) sweepRemote(ctx context.Context, userID string) {
	n, err := l.remoteRepo.DeleteCompletedBefore(ctx, l.remoteDB, userID, l.cutoff())
	if err != nil {
		l.logger.WarnContext(ctx, "Failed to sweep stale remote progress", slog.String("user_id", userID), slog.Any("error", err))
		return
	}
	if n > 0 {
		l.logger.InfoContext(ctx, "Swept stale remote progress", slog.String("user_id", userID), slog.Int64("removed", n))
	}
}

func (l *ledger) loadRemote(ctx context.Context, userID string, filter repository.RecordFilter) []model.CompletedExerciseRecord {
	l.sweepRemote(ctx, userID)
	records, err := l.remoteRepo.FindByUser(ctx, l.remoteDB, userID, filter)
	if err != nil {
		l.logger.WarnContext(ctx, "Remote progress unavailable, treating as empty",
			slog.String("user_id", userID), slog.Any("error", errors.Join(model.ErrBackendUnavailable, err)))
		return nil
	}
	return records
}

func (l *ledger) loadAll(ctx context.Context, identity model.Identity) []model.CompletedExerciseRecord {
	if identity.IsAuthenticated() {
		return l.loadRemote(ctx, identity.UserID, repository.RecordFilter{AnyTheme: true})
	}
	l.localMu.Lock()
	defer l.localMu.Unlock()
	return l.loadLocal(ctx, identity.DeviceID)
}

// --- operations ---

// GetCompletedExercises returns ids completed in the (type, level, theme)
// partition. A nil theme matches every theme.
func (l *ledger) GetCompletedExercises(ctx context.Context, exerciseType model.ExerciseType, level model.ProficiencyLevel, theme *string, identity model.Identity) []string {
	if identity.IsZero() {
		return []string{}
	}
	theme = normalizeTheme(theme)

	var records []model.CompletedExerciseRecord
	if identity.IsAuthenticated() {
		records = l.loadRemote(ctx, identity.UserID, repository.RecordFilter{
			ExerciseType:     exerciseType,
			ProficiencyLevel: level,
			Theme:            theme,
			AnyTheme:         theme == nil,
		})
	} else {
		for _, r := range l.loadAll(ctx, identity) {
			if r.ExerciseType != exerciseType || r.ProficiencyLevel != level {
				continue
			}
			if theme != nil && !sameTheme(r.Theme, theme) {
				continue
			}
			records = append(records, r)
		}
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ExerciseID)
	}
	return ids
}

func scoreOf(in *model.Score) (model.Score, bool) {
	if in == nil {
		return model.Score{}, false
	}
	return model.Score{
		Correct:    in.Correct,
		Total:      in.Total,
		Percentage: answer.Percentage(in.Correct, in.Total),
	}, true
}

func (l *ledger) newRecord(in model.CompletionInput, theme *string) model.CompletedExerciseRecord {
	score, _ := scoreOf(in.Score)
	return model.CompletedExerciseRecord{
		ExerciseType:     in.ExerciseType,
		ExerciseID:       in.ExerciseID,
		ProficiencyLevel: in.ProficiencyLevel,
		Theme:            theme,
		Title:            in.Title,
		CompletedAt:      l.now().UTC(),
		Score:            score,
		AttemptNumber:    1,
		BestScore:        score.Percentage,
	}
}

// applyAttempt records a repeat completion: one more attempt, best score never lowered.
func (l *ledger) applyAttempt(r *model.CompletedExerciseRecord, in model.CompletionInput, theme *string) {
	r.AttemptNumber++
	if score, ok := scoreOf(in.Score); ok {
		r.Score = score
		if score.Percentage > r.BestScore {
			r.BestScore = score.Percentage
		}
	}
	r.CompletedAt = l.now().UTC()
	r.ProficiencyLevel = in.ProficiencyLevel
	r.Theme = theme
	if in.Title != "" {
		r.Title = in.Title
	}
}

// MarkExerciseCompleted upserts the record of in.ExerciseID. Storage failures
// are logged and swallowed.
func (l *ledger) MarkExerciseCompleted(ctx context.Context, in model.CompletionInput, identity model.Identity) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if in.ExerciseID == "" {
		return model.NewAppError("INVALID_REQUEST", "exerciseId is required.", "exerciseId", model.ErrInvalidInput)
	}
	if _, err := in.ExerciseType.Shape(); err != nil {
		return model.NewAppError("UNSUPPORTED_EXERCISE_TYPE", err.Error(), "exerciseType", err)
	}
	theme := normalizeTheme(in.Theme)

	if identity.IsAuthenticated() {
		l.sweepRemote(ctx, identity.UserID)
		if err := l.upsertRemote(ctx, identity.UserID, in, theme); err != nil {
			l.logger.WarnContext(ctx, "Failed to record completion remotely",
				slog.String("user_id", identity.UserID),
				slog.String("exercise_id", in.ExerciseID),
				slog.Any("error", errors.Join(model.ErrBackendUnavailable, err)))
		}
		return nil
	}

	l.localMu.Lock()
	defer l.localMu.Unlock()
	records := l.loadLocal(ctx, identity.DeviceID)
	found := false
	for i := range records {
		if records[i].ExerciseType == in.ExerciseType && records[i].ExerciseID == in.ExerciseID {
			l.applyAttempt(&records[i], in, theme)
			found = true
			break
		}
	}
	if !found {
		records = append(records, l.newRecord(in, theme))
	}
	if err := l.writeLocal(ctx, identity.DeviceID, records); err != nil {
		l.logger.WarnContext(ctx, "Failed to record completion locally",
			slog.String("device_id", identity.DeviceID),
			slog.String("exercise_id", in.ExerciseID),
			slog.Any("error", errors.Join(model.ErrBackendUnavailable, err)))
	}
	return nil
}

func (l *ledger) upsertRemote(ctx context.Context, userID string, in model.CompletionInput, theme *string) error {
	upsert := func() error {
		return l.remoteDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := l.remoteRepo.FindOne(ctx, tx, userID, in.ExerciseType, in.ExerciseID)
			if errors.Is(err, model.ErrNotFound) {
				rec := l.newRecord(in, theme)
				rec.UserID = userID
				return l.remoteRepo.Create(ctx, tx, &rec)
			}
			if err != nil {
				return err
			}
			l.applyAttempt(existing, in, theme)
			return l.remoteRepo.Update(ctx, tx, existing)
		})
	}

	err := upsert()
	if errors.Is(err, model.ErrConflict) {
		// A concurrent first completion won the insert; count ours as a repeat.
		err = upsert()
	}
	return err
}

// mergeRecord folds a device record into an account record.
func mergeRecord(dst *model.CompletedExerciseRecord, src model.CompletedExerciseRecord) {
	if src.BestScore > dst.BestScore {
		dst.BestScore = src.BestScore
	}
	if src.AttemptNumber > dst.AttemptNumber {
		dst.AttemptNumber = src.AttemptNumber
	}
	if src.CompletedAt.After(dst.CompletedAt) {
		dst.CompletedAt = src.CompletedAt
		dst.Score = src.Score
		dst.ProficiencyLevel = src.ProficiencyLevel
		dst.Theme = src.Theme
	}
	if dst.Title == "" {
		dst.Title = src.Title
	}
}

// MigrateLocalProgressToUser copies the device's records into the account in
// one transaction. It runs at most once per (user, device); later calls and
// calls without local records report false.
func (l *ledger) MigrateLocalProgressToUser(ctx context.Context, identity model.Identity) (bool, error) {
	if !identity.IsAuthenticated() || identity.DeviceID == "" {
		return false, model.NewAppError("IDENTITY_REQUIRED", "Migration needs both a device id and an authenticated user.", "identity", model.ErrInvalidInput)
	}

	l.localMu.Lock()
	local := l.loadLocal(ctx, identity.DeviceID)
	l.localMu.Unlock()
	if len(local) == 0 {
		return false, nil
	}

	err := l.remoteDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := l.remoteRepo.CreateMigrationMarker(ctx, tx, &model.ProgressMigration{
			UserID:     identity.UserID,
			DeviceID:   identity.DeviceID,
			Records:    len(local),
			MigratedAt: l.now().UTC(),
		})
		if err != nil {
			return err
		}
		if !created {
			return errAlreadyMigrated
		}

		for _, src := range local {
			existing, err := l.remoteRepo.FindOne(ctx, tx, identity.UserID, src.ExerciseType, src.ExerciseID)
			switch {
			case errors.Is(err, model.ErrNotFound):
				rec := src
				rec.ID = 0
				rec.UserID = identity.UserID
				if err := l.remoteRepo.Create(ctx, tx, &rec); err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				mergeRecord(existing, src)
				if err := l.remoteRepo.Update(ctx, tx, existing); err != nil {
					return err
				}
			}
		}
		return nil
	})

	if errors.Is(err, errAlreadyMigrated) {
		l.logger.InfoContext(ctx, "Device progress already migrated",
			slog.String("user_id", identity.UserID), slog.String("device_id", identity.DeviceID))
		return false, nil
	}
	if err != nil {
		l.logger.ErrorContext(ctx, "Progress migration failed, nothing was committed",
			slog.String("user_id", identity.UserID), slog.String("device_id", identity.DeviceID), slog.Any("error", err))
		return false, fmt.Errorf("migrate local progress: %v: %w", err, model.ErrBackendUnavailable)
	}

	l.logger.InfoContext(ctx, "Migrated local progress to account",
		slog.String("user_id", identity.UserID), slog.String("device_id", identity.DeviceID), slog.Int("records", len(local)))
	return true, nil
}

// GetPerformanceStats aggregates the identity's records, optionally for one type.
func (l *ledger) GetPerformanceStats(ctx context.Context, identity model.Identity, exerciseType *model.ExerciseType) model.PerformanceStats {
	stats := model.PerformanceStats{
		PerExerciseTypeStats: make(map[model.ExerciseType]model.TypeStats),
		RecentActivity:       []model.CompletedExerciseRecord{},
	}
	if identity.IsZero() {
		return stats
	}

	var records []model.CompletedExerciseRecord
	for _, r := range l.loadAll(ctx, identity) {
		if exerciseType != nil && r.ExerciseType != *exerciseType {
			continue
		}
		records = append(records, r)
	}
	if len(records) == 0 {
		return stats
	}

	total := 0
	perTypeSum := make(map[model.ExerciseType]int)
	for _, r := range records {
		total += r.BestScore
		perTypeSum[r.ExerciseType] += r.BestScore
		ts := stats.PerExerciseTypeStats[r.ExerciseType]
		ts.Completed++
		stats.PerExerciseTypeStats[r.ExerciseType] = ts
	}
	for t, ts := range stats.PerExerciseTypeStats {
		ts.AverageScore = answer.Percentage(perTypeSum[t], ts.Completed*100)
		stats.PerExerciseTypeStats[t] = ts
	}
	stats.TotalCompleted = len(records)
	stats.AverageScore = answer.Percentage(total, len(records)*100)

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CompletedAt.After(records[j].CompletedAt)
	})
	if len(records) > recentActivityLimit {
		records = records[:recentActivityLimit]
	}
	stats.RecentActivity = records
	return stats
}

// ClearAllProgress deletes the device's local records and, for an
// authenticated identity, the account's remote records.
func (l *ledger) ClearAllProgress(ctx context.Context, identity model.Identity) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}

	if identity.DeviceID != "" {
		l.localMu.Lock()
		err := l.localRepo.Delete(ctx, l.localDB, identity.DeviceID, LocalNamespace)
		l.localMu.Unlock()
		if err != nil {
			l.logger.ErrorContext(ctx, "Failed to clear local progress", slog.String("device_id", identity.DeviceID), slog.Any("error", err))
			return fmt.Errorf("clear local progress: %v: %w", err, model.ErrBackendUnavailable)
		}
	}
	if identity.IsAuthenticated() {
		n, err := l.remoteRepo.DeleteByUser(ctx, l.remoteDB, identity.UserID)
		if err != nil {
			l.logger.ErrorContext(ctx, "Failed to clear remote progress", slog.String("user_id", identity.UserID), slog.Any("error", err))
			return fmt.Errorf("clear remote progress: %v: %w", err, model.ErrBackendUnavailable)
		}
		l.logger.InfoContext(ctx, "Cleared remote progress", slog.String("user_id", identity.UserID), slog.Int64("removed", n))
	}
	return nil
}
