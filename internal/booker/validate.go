package booker

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"kadence-booker/internal/models"
)

// ValidationError marks a row that was rejected before any network call.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// validateRow is the pipeline's first state: every required field present
// and the date well-formed, checked entirely offline.
func validateRow(row models.InputRow) error {
	err := validation.ValidateStruct(&row,
		validation.Field(&row.Email, validation.Required.Error("email address is required")),
		validation.Field(&row.Building, validation.Required.Error("building name is required")),
		validation.Field(&row.Floor, validation.Required.Error("floor name is required")),
		validation.Field(&row.Space, validation.Required.Error("space name is required")),
		validation.Field(&row.Date, validation.Required.Error("date is required")),
	)
	if err != nil {
		return &ValidationError{Err: err}
	}
	if !dateRe.MatchString(row.Date) {
		return &ValidationError{Err: fmt.Errorf("invalid date %q: expected YYYY-MM-DD", row.Date)}
	}
	return nil
}
