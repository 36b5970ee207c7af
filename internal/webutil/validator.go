package webutil

import (
	"log"
	"reflect"
	"strings"

	"vjezbajmo/internal/model"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator is shared by every handler.
var Validator *validator.Validate

// Trans renders validation messages.
var Trans ut.Translator

func init() {
	Validator = validator.New()

	// report json names, not Go field names
	Validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	var found bool
	Trans, found = uni.GetTranslator("en")
	if !found {
		log.Fatal("translator not found")
	}
	if err := en_translations.RegisterDefaultTranslations(Validator, Trans); err != nil {
		log.Fatal(err)
	}

	mustRegister("cefr", func(fl validator.FieldLevel) bool {
		return model.ProficiencyLevel(fl.Field().String()).IsValid()
	}, "{0} must be one of A1, A2.1, A2.2, B1.1")
	mustRegister("exercise_type", func(fl validator.FieldLevel) bool {
		return model.ExerciseType(fl.Field().String()).IsValid()
	}, "{0} must be one of verbTenses, nounDeclension, verbAspect, interrogativePronouns")
}

func mustRegister(tag string, fn validator.Func, msg string) {
	if err := Validator.RegisterValidation(tag, fn); err != nil {
		log.Fatal(err)
	}
	err := Validator.RegisterTranslation(tag, Trans, func(ut ut.Translator) error {
		return ut.Add(tag, msg, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T(tag, fe.Field())
		return t
	})
	if err != nil {
		log.Fatal(err)
	}
}
