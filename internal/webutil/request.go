package webutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"vjezbajmo/internal/model"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// DecodeJSONBody decodes the request body into dst, rejecting unknown fields.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return model.NewAppError("INVALID_JSON", "Request body is required.", "", model.ErrInvalidInput)
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewAppError("INVALID_JSON", "Request body is required.", "", model.ErrInvalidInput)
		}
		return model.NewAppError("INVALID_JSON", "Request body is not valid JSON: "+err.Error(), "", model.ErrInvalidInput)
	}
	return nil
}

// Validate runs struct validation and converts failures into a VALIDATION_ERROR.
func Validate(v interface{}) error {
	err := Validator.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationErrorResponse(verrs)
	}
	return model.NewAppError("VALIDATION_ERROR", err.Error(), "", model.ErrInvalidInput)
}
