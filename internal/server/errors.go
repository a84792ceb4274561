package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/geoquality/surveyform/internal/survey"
)

// ErrUnknownSection indicates a section path parameter outside section1..section5
type ErrUnknownSection struct {
	Section string
}

func (e *ErrUnknownSection) Error() string {
	return fmt.Sprintf("unknown section: %s", e.Section)
}

// ErrUnknownPage indicates a page that is not part of the survey
type ErrUnknownPage struct {
	Page string
}

func (e *ErrUnknownPage) Error() string {
	return fmt.Sprintf("unknown page: %s", e.Page)
}

// ErrNotApplicable indicates a page skipped for the current evaluation
type ErrNotApplicable struct {
	Page string
}

func (e *ErrNotApplicable) Error() string {
	return fmt.Sprintf("%s does not apply to this evaluation", e.Page)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		unknownSection *ErrUnknownSection
		unknownPage    *ErrUnknownPage
		notApplicable  *ErrNotApplicable
		validation     *ErrValidation
	)
	switch {
	case errors.As(err, &unknownSection), errors.As(err, &unknownPage),
		errors.Is(err, survey.ErrUnknownSection):
		return http.StatusNotFound
	case errors.As(err, &notApplicable):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
