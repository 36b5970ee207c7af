// Package worksheet serves the fixed catalog of pre-authored exercises.
package worksheet

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"vjezbajmo/internal/answer"
	"vjezbajmo/internal/model"
)

//go:embed data/*.json
var catalogData embed.FS

// CatalogID is a worksheet id. The catalog may write it as a number or a string.
type CatalogID string

func (c *CatalogID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = CatalogID(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("worksheet id must be a string or an integer: %w", err)
	}
	*c = CatalogID(strconv.FormatInt(n, 10))
	return nil
}

// Worksheet is one raw catalog entry.
type Worksheet struct {
	ID        CatalogID                 `json:"id"`
	Title     string                    `json:"title"`
	Level     model.ProficiencyLevel    `json:"level"`
	Paragraph string                    `json:"paragraph,omitempty"`
	Questions []model.ParagraphQuestion `json:"questions,omitempty"`
	Exercises []model.SentenceExercise  `json:"exercises,omitempty"`
}

type catalogFile struct {
	ExerciseType model.ExerciseType `json:"exerciseType"`
	Worksheets   []Worksheet        `json:"worksheets"`
}

// Repository is read-only access to the static catalog.
type Repository interface {
	ListWorksheets(exerciseType model.ExerciseType) ([]Worksheet, error)
	NextUnfinished(exerciseType model.ExerciseType, level model.ProficiencyLevel, completedIDs []string) (*Worksheet, error)
	Progress(exerciseType model.ExerciseType, level model.ProficiencyLevel, completedIDs []string) (model.ProgressSummary, error)
	ToExerciseSet(ws Worksheet, exerciseType model.ExerciseType) (*model.ExerciseSet, error)
}

type catalogRepository struct {
	byType map[model.ExerciseType][]Worksheet
}

// NewRepository loads every data/*.json file of fsys. Files are read in name
// order and worksheets keep their order within a file. Every worksheet is
// converted once so malformed data fails at startup.
func NewRepository(fsys fs.FS) (Repository, error) {
	entries, err := fs.ReadDir(fsys, "data")
	if err != nil {
		return nil, fmt.Errorf("read worksheet catalog: %v: %w", err, model.ErrConfiguration)
	}

	r := &catalogRepository{byType: make(map[model.ExerciseType][]Worksheet)}
	questionIDs := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(fsys, "data/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %v: %w", entry.Name(), err, model.ErrConfiguration)
		}
		var file catalogFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %v: %w", entry.Name(), err, model.ErrConfiguration)
		}
		if _, err := file.ExerciseType.Shape(); err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}

		seen := make(map[CatalogID]bool)
		for _, ws := range r.byType[file.ExerciseType] {
			seen[ws.ID] = true
		}
		for _, ws := range file.Worksheets {
			if seen[ws.ID] {
				return nil, fmt.Errorf("%s: duplicate worksheet id %q: %w", entry.Name(), ws.ID, model.ErrConfiguration)
			}
			seen[ws.ID] = true
			if !ws.Level.IsValid() {
				return nil, fmt.Errorf("%s: worksheet %s has unknown level %q: %w", entry.Name(), ws.ID, ws.Level, model.ErrConfiguration)
			}
			set, err := r.ToExerciseSet(ws, file.ExerciseType)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", entry.Name(), err)
			}
			// Solutions are cached by question id, so ids must be unique catalog-wide.
			for _, s := range set.Solutions() {
				if owner, dup := questionIDs[s.QuestionID]; dup {
					return nil, fmt.Errorf("%s: question id %q already used by %s: %w", entry.Name(), s.QuestionID, owner, model.ErrConfiguration)
				}
				questionIDs[s.QuestionID] = string(file.ExerciseType) + "/" + string(ws.ID)
			}
			r.byType[file.ExerciseType] = append(r.byType[file.ExerciseType], ws)
		}
	}
	return r, nil
}

// NewEmbeddedRepository loads the catalog compiled into the binary.
func NewEmbeddedRepository() (Repository, error) {
	return NewRepository(catalogData)
}

func (r *catalogRepository) worksheets(exerciseType model.ExerciseType) ([]Worksheet, error) {
	if _, err := exerciseType.Shape(); err != nil {
		return nil, err
	}
	return r.byType[exerciseType], nil
}

func (r *catalogRepository) ListWorksheets(exerciseType model.ExerciseType) ([]Worksheet, error) {
	all, err := r.worksheets(exerciseType)
	if err != nil {
		return nil, err
	}
	out := make([]Worksheet, len(all))
	copy(out, all)
	return out, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// NextUnfinished returns the first worksheet at level whose id is not in
// completedIDs, or nil when every worksheet there is completed.
func (r *catalogRepository) NextUnfinished(exerciseType model.ExerciseType, level model.ProficiencyLevel, completedIDs []string) (*Worksheet, error) {
	all, err := r.worksheets(exerciseType)
	if err != nil {
		return nil, err
	}
	done := toSet(completedIDs)
	for _, ws := range all {
		if ws.Level == level && !done[string(ws.ID)] {
			found := ws
			return &found, nil
		}
	}
	return nil, nil
}

func (r *catalogRepository) Progress(exerciseType model.ExerciseType, level model.ProficiencyLevel, completedIDs []string) (model.ProgressSummary, error) {
	all, err := r.worksheets(exerciseType)
	if err != nil {
		return model.ProgressSummary{}, err
	}
	done := toSet(completedIDs)
	var summary model.ProgressSummary
	for _, ws := range all {
		if ws.Level != level {
			continue
		}
		summary.Total++
		if done[string(ws.ID)] {
			summary.Completed++
		}
	}
	return summary, nil
}

// ToExerciseSet converts a catalog entry into the canonical exercise shape of
// exerciseType. Noun declension questions without an explicit plural hint get
// one guessed from the first correct answer.
func (r *catalogRepository) ToExerciseSet(ws Worksheet, exerciseType model.ExerciseType) (*model.ExerciseSet, error) {
	shape, err := exerciseType.Shape()
	if err != nil {
		return nil, err
	}

	set := &model.ExerciseSet{ID: string(ws.ID), Title: ws.Title}
	switch shape {
	case model.ShapeParagraph:
		set.Paragraph = ws.Paragraph
		for _, q := range ws.Questions {
			q.CorrectAnswer = trimAnswers(q.CorrectAnswer)
			if q.IsPlural != nil {
				v := *q.IsPlural
				q.IsPlural = &v
			} else if exerciseType == model.ExerciseTypeNounDeclension && len(q.CorrectAnswer) > 0 {
				v := answer.LooksPlural(q.CorrectAnswer[0])
				q.IsPlural = &v
			}
			set.Questions = append(set.Questions, q)
		}
	case model.ShapeSentence:
		for _, s := range ws.Exercises {
			s.CorrectAnswer = trimAnswers(s.CorrectAnswer)
			s.Options = append([]string(nil), s.Options...)
			set.Exercises = append(set.Exercises, s)
		}
	}

	if err := set.Validate(shape); err != nil {
		return nil, fmt.Errorf("worksheet %s/%s: %v: %w", exerciseType, ws.ID, err, model.ErrConfiguration)
	}
	return set, nil
}

func trimAnswers(in model.AnswerList) model.AnswerList {
	out := make(model.AnswerList, 0, len(in))
	for _, a := range in {
		out = append(out, strings.TrimSpace(a))
	}
	return out
}
