package generation

import (
	"fmt"
	"strings"

	"vjezbajmo/internal/model"
)

const systemPrompt = `You write Croatian grammar exercises for adult learners.

Rules:
- Use standard Croatian (ijekavian) with correct diacritics (č, ć, đ, š, ž).
- Match the requested CEFR level in vocabulary and sentence length.
- List every acceptable surface form in correctAnswer, most common first.
- Explanations are one or two short sentences in Croatian.
- Return only JSON matching the provided schema.`

var typeInstructions = map[model.ExerciseType]string{
	model.ExerciseTypeVerbTenses: "Write one coherent paragraph of 4 to 8 blanks. Each blank asks for a conjugated verb; baseForm is the infinitive. " +
		"Number blanks ___1___, ___2___, ... in order of appearance. Set isPlural to false.",
	model.ExerciseTypeNounDeclension: "Write one coherent paragraph of 4 to 8 blanks. Each blank asks for a declined noun; baseForm is the nominative singular. " +
		"Number blanks ___1___, ___2___, ... in order of appearance. Set isPlural when the answer is a plural form.",
	model.ExerciseTypeVerbAspect: "Write 6 to 10 sentences with one blank (___) each. For every sentence give the imperfective and perfective verb " +
		"as the two options, the aspect that fits in correctChoice, and the fitting form in correctAnswer.",
	model.ExerciseTypeInterrogativePronouns: "Write 6 to 10 question/answer pairs with the interrogative pronoun replaced by ___. " +
		"correctAnswer is the missing pronoun in the right case. Leave options empty and correctChoice as an empty string.",
}

func buildUserMessage(req model.GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Exercise type: %s\n", req.ExerciseType)
	fmt.Fprintf(&b, "Level: %s\n", req.ProficiencyLevel)
	if theme := model.NormalizeTheme(req.Theme); theme != "" {
		fmt.Fprintf(&b, "Theme: %s\n", theme)
	} else {
		b.WriteString("Theme: everyday life\n")
	}
	b.WriteString("\n")
	b.WriteString(typeInstructions[req.ExerciseType])
	return b.String()
}
