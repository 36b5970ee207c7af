// internal/model/cache.go
package model

import (
	"strings"
	"time"
)

const (
	cacheKeyPrefix    = "exercises"
	solutionKeyPrefix = "solution:"
	// DefaultTheme stands in for "no theme" in cache keys.
	DefaultTheme = "default"
)

// CachedExercise is a generated exercise stored in the shared pool.
type CachedExercise struct {
	Exercise         ExerciseSet      `json:"exercise"`
	ExerciseType     ExerciseType     `json:"exerciseType"`
	ProficiencyLevel ProficiencyLevel `json:"proficiencyLevel"`
	Theme            *string          `json:"theme"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// CacheKey partitions the shared exercise pool.
type CacheKey struct {
	ExerciseType     ExerciseType
	ProficiencyLevel ProficiencyLevel
	Theme            string
}

// NormalizeTheme trims and lower-cases a theme; nil or blank yields "".
func NormalizeTheme(theme *string) string {
	if theme == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*theme))
}

// NewCacheKey builds the key for (type, level, theme). A nil or blank theme maps to DefaultTheme.
func NewCacheKey(exerciseType ExerciseType, level ProficiencyLevel, theme *string) CacheKey {
	t := NormalizeTheme(theme)
	if t == "" {
		t = DefaultTheme
	}
	return CacheKey{ExerciseType: exerciseType, ProficiencyLevel: level, Theme: t}
}

// String renders the storage key, e.g. "exercises:verbTenses:A1:default".
func (k CacheKey) String() string {
	return cacheKeyPrefix + ":" + string(k.ExerciseType) + ":" + string(k.ProficiencyLevel) + ":" + k.Theme
}

// Solution is the answer key of one question, kept briefly for answer checking.
type Solution struct {
	QuestionID     string   `json:"questionId"`
	CorrectAnswers []string `json:"correctAnswers"`
	Explanation    string   `json:"explanation,omitempty"`
}

// SolutionKey renders the storage key of a question's solution.
func SolutionKey(questionID string) string {
	return solutionKeyPrefix + questionID
}
