// internal/repository/progress_repository.go
//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vjezbajmo/internal/middleware"
	"vjezbajmo/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordFilter narrows a record query. Zero fields do not filter. AnyTheme
// ignores Theme; otherwise a nil Theme matches records without a theme.
type RecordFilter struct {
	ExerciseType     model.ExerciseType
	ProficiencyLevel model.ProficiencyLevel
	Theme            *string
	AnyTheme         bool
}

// ProgressRepository persists completion records of authenticated accounts.
type ProgressRepository interface {
	FindByUser(ctx context.Context, db *gorm.DB, userID string, filter RecordFilter) ([]model.CompletedExerciseRecord, error)
	FindOne(ctx context.Context, db *gorm.DB, userID string, exerciseType model.ExerciseType, exerciseID string) (*model.CompletedExerciseRecord, error)
	Create(ctx context.Context, tx *gorm.DB, record *model.CompletedExerciseRecord) error
	Update(ctx context.Context, tx *gorm.DB, record *model.CompletedExerciseRecord) error
	DeleteByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	DeleteCompletedBefore(ctx context.Context, db *gorm.DB, userID string, cutoff time.Time) (int64, error)
	// CreateMigrationMarker reports false when the (user, device) marker already exists.
	CreateMigrationMarker(ctx context.Context, tx *gorm.DB, marker *model.ProgressMigration) (bool, error)
}

type gormProgressRepository struct{}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

// isUniqueViolation covers postgres (SQLSTATE 23505) and drivers that
// translate the error into gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func (r *gormProgressRepository) FindByUser(ctx context.Context, db *gorm.DB, userID string, filter RecordFilter) ([]model.CompletedExerciseRecord, error) {
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.ExerciseType != "" {
		q = q.Where("exercise_type = ?", filter.ExerciseType)
	}
	if filter.ProficiencyLevel != "" {
		q = q.Where("proficiency_level = ?", filter.ProficiencyLevel)
	}
	if !filter.AnyTheme {
		if filter.Theme == nil {
			q = q.Where("theme IS NULL")
		} else {
			q = q.Where("theme = ?", *filter.Theme)
		}
	}

	var records []model.CompletedExerciseRecord
	if err := q.Order("completed_at DESC, id DESC").Find(&records).Error; err != nil {
		middleware.GetLogger(ctx).Error("Error finding completed exercises in DB",
			"error", err,
			"user_id", userID,
		)
		return nil, fmt.Errorf("gormProgressRepository.FindByUser: %w", err)
	}
	return records, nil
}

func (r *gormProgressRepository) FindOne(ctx context.Context, db *gorm.DB, userID string, exerciseType model.ExerciseType, exerciseID string) (*model.CompletedExerciseRecord, error) {
	var record model.CompletedExerciseRecord
	result := db.WithContext(ctx).
		Where("user_id = ? AND exercise_type = ? AND exercise_id = ?", userID, exerciseType, exerciseID).
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormProgressRepository.FindOne: %w", result.Error)
	}
	return &record, nil
}

func (r *gormProgressRepository) Create(ctx context.Context, tx *gorm.DB, record *model.CompletedExerciseRecord) error {
	if err := tx.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueViolation(err) {
			middleware.GetLogger(ctx).Warn("Duplicate key error on create completed exercise",
				"error", err,
				"exercise_type", record.ExerciseType,
				"exercise_id", record.ExerciseID,
			)
			return model.ErrConflict
		}
		return fmt.Errorf("gormProgressRepository.Create: %w", err)
	}
	return nil
}

func (r *gormProgressRepository) Update(ctx context.Context, tx *gorm.DB, record *model.CompletedExerciseRecord) error {
	result := tx.WithContext(ctx).Save(record)
	if result.Error != nil {
		return fmt.Errorf("gormProgressRepository.Update: %w", result.Error)
	}
	return nil
}

func (r *gormProgressRepository) DeleteByUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	result := db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CompletedExerciseRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("gormProgressRepository.DeleteByUser: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormProgressRepository) DeleteCompletedBefore(ctx context.Context, db *gorm.DB, userID string, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Where("user_id = ? AND completed_at < ?", userID, cutoff).
		Delete(&model.CompletedExerciseRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("gormProgressRepository.DeleteCompletedBefore: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *gormProgressRepository) CreateMigrationMarker(ctx context.Context, tx *gorm.DB, marker *model.ProgressMigration) (bool, error) {
	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "device_id"}},
			DoNothing: true,
		}).
		Create(marker)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return false, nil
		}
		return false, fmt.Errorf("gormProgressRepository.CreateMigrationMarker: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
