// internal/model/progress.go
package model

import (
	"time"
)

// Score is the outcome of one attempt at an exercise set.
type Score struct {
	Correct    int `json:"correct" gorm:"not null;default:0"`
	Total      int `json:"total" gorm:"not null;default:0"`
	Percentage int `json:"percentage" gorm:"not null;default:0"`
}

// CompletedExerciseRecord tracks one completed exercise of one identity. Remote
// rows carry the account id; local records are serialized without it.
type CompletedExerciseRecord struct {
	ID               uint             `gorm:"primaryKey" json:"-"`
	UserID           string           `gorm:"type:varchar(128);not null;uniqueIndex:uq_completed_exercise,priority:1;index" json:"-"`
	ExerciseType     ExerciseType     `gorm:"type:varchar(64);not null;uniqueIndex:uq_completed_exercise,priority:2" json:"exerciseType"`
	ExerciseID       string           `gorm:"type:varchar(128);not null;uniqueIndex:uq_completed_exercise,priority:3" json:"exerciseId"`
	ProficiencyLevel ProficiencyLevel `gorm:"type:varchar(16);not null" json:"proficiencyLevel"`
	Theme            *string          `gorm:"type:varchar(255)" json:"theme,omitempty"`
	Title            string           `json:"title,omitempty"`
	CompletedAt      time.Time        `gorm:"not null;index" json:"completedAt"`
	Score            Score            `gorm:"embedded;embeddedPrefix:score_" json:"score"`
	AttemptNumber    int              `gorm:"not null;default:1" json:"attemptNumber"`
	BestScore        int              `gorm:"not null;default:0" json:"bestScore"`
	CreatedAt        time.Time        `json:"-"`
	UpdatedAt        time.Time        `json:"-"`
}

func (CompletedExerciseRecord) TableName() string {
	return "completed_exercises"
}

// RecordKey identifies a record within one identity. Static catalog ids are only
// unique per exercise type, so the type is part of the key.
func (r *CompletedExerciseRecord) RecordKey() string {
	return string(r.ExerciseType) + ":" + r.ExerciseID
}

// ProgressMigration marks that a device's local progress has been copied into an account.
type ProgressMigration struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     string    `gorm:"type:varchar(128);not null;uniqueIndex:uq_progress_migration,priority:1"`
	DeviceID   string    `gorm:"type:varchar(128);not null;uniqueIndex:uq_progress_migration,priority:2"`
	Records    int       `gorm:"not null;default:0"`
	MigratedAt time.Time `gorm:"not null"`
}

func (ProgressMigration) TableName() string {
	return "progress_migrations"
}

// CompletionInput describes a finished exercise to be recorded.
type CompletionInput struct {
	ExerciseID       string
	ExerciseType     ExerciseType
	ProficiencyLevel ProficiencyLevel
	Theme            *string
	Score            *Score
	Title            string
}

// ProgressSummary counts completed static worksheets at one level.
type ProgressSummary struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// TypeStats aggregates records of one exercise type.
type TypeStats struct {
	Completed    int `json:"completed"`
	AverageScore int `json:"averageScore"`
}

// PerformanceStats is the analytics view over an identity's records.
type PerformanceStats struct {
	TotalCompleted       int                        `json:"totalCompleted"`
	AverageScore         int                        `json:"averageScore"`
	PerExerciseTypeStats map[ExerciseType]TypeStats `json:"perExerciseTypeStats"`
	RecentActivity       []CompletedExerciseRecord  `json:"recentActivity"`
}
