// internal/model/selection.go
package model

// ExerciseSource tells which phase produced a selected exercise.
type ExerciseSource string

const (
	SourceStatic    ExerciseSource = "static"
	SourceCache     ExerciseSource = "cache"
	SourceGenerated ExerciseSource = "generated"
)

// SelectRequest asks for the next exercise of one partition.
type SelectRequest struct {
	ExerciseType     ExerciseType
	ProficiencyLevel ProficiencyLevel
	Theme            *string
}

// Selection is what the selector hands back to the session layer.
type Selection struct {
	Exercise         *ExerciseSet     `json:"exercise"`
	Source           ExerciseSource   `json:"source"`
	ExerciseType     ExerciseType     `json:"exerciseType"`
	ProficiencyLevel ProficiencyLevel `json:"proficiencyLevel"`
	Theme            *string          `json:"theme,omitempty"`
}

// GenerationRequest is passed to the external generation collaborator.
type GenerationRequest struct {
	ExerciseType     ExerciseType
	ProficiencyLevel ProficiencyLevel
	Theme            *string
}

// ExerciseQuery is bound from the query string of exercise routes.
type ExerciseQuery struct {
	Level string `json:"level" validate:"required,cefr"`
	Theme string `json:"theme" validate:"omitempty,max=100"`
}

// RecordCompletionRequest is the body of a completion report.
type RecordCompletionRequest struct {
	ExerciseID   string      `json:"exerciseId" validate:"required,max=128"`
	ExerciseType string      `json:"exerciseType" validate:"required,exercise_type"`
	Level        string      `json:"level" validate:"required,cefr"`
	Theme        *string     `json:"theme,omitempty" validate:"omitempty,max=100"`
	Score        *ScoreInput `json:"score,omitempty"`
	Title        string      `json:"title,omitempty" validate:"max=255"`
}

// ScoreInput is a reported score; the percentage is derived server-side.
type ScoreInput struct {
	Correct int `json:"correct" validate:"gte=0"`
	Total   int `json:"total" validate:"gte=0,gtefield=Correct"`
}

// CompletedQuery is bound from the query string of the completed-ids route.
type CompletedQuery struct {
	ExerciseType string `json:"type" validate:"required,exercise_type"`
	Level        string `json:"level" validate:"required,cefr"`
	Theme        string `json:"theme" validate:"omitempty,max=100"`
}

// StatsQuery optionally narrows performance stats to one exercise type.
type StatsQuery struct {
	ExerciseType string `json:"type" validate:"omitempty,exercise_type"`
}

// CompletedResponse lists completed exercise ids.
type CompletedResponse struct {
	ExerciseIDs []string `json:"exerciseIds"`
}

// MigrationResponse reports whether local progress was copied into the account.
type MigrationResponse struct {
	Migrated bool `json:"migrated"`
}
