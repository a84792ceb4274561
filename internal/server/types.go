package server

import (
	"errors"

	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/go-playground/validator/v10"
)

// Field kinds on the wire.
const (
	KindText     = "text"
	KindCheckbox = "checkbox"
	KindRadio    = "radio"
	KindList     = "list"
)

// FieldState is one form control as reported by a page.
type FieldState struct {
	ID         string   `json:"id" validate:"required"`
	Kind       string   `json:"kind,omitempty" validate:"omitempty,oneof=text checkbox radio list"`
	Value      string   `json:"value"`
	Checked    bool     `json:"checked,omitempty"`
	Items      []string `json:"items,omitempty"`
	ScoreGroup string   `json:"scoreGroup,omitempty"`
}

var kindNames = map[survey.FieldKind]string{
	survey.FieldText:     KindText,
	survey.FieldCheckbox: KindCheckbox,
	survey.FieldRadio:    KindRadio,
	survey.FieldList:     KindList,
}

func (f FieldState) toField() survey.Field {
	out := survey.Field{ID: f.ID, Value: f.Value, Checked: f.Checked, Items: f.Items, ScoreGroup: f.ScoreGroup}
	for kind, name := range kindNames {
		if name == f.Kind {
			out.Kind = kind
		}
	}
	return out
}

func fieldState(f survey.Field) FieldState {
	return FieldState{
		ID:         f.ID,
		Kind:       kindNames[f.Kind],
		Value:      f.Value,
		Checked:    f.Checked,
		Items:      f.Items,
		ScoreGroup: f.ScoreGroup,
	}
}

// PageRequest carries every control currently on a page.
type PageRequest struct {
	Fields []FieldState `json:"fields" validate:"dive"`
}

func (r *PageRequest) page() *survey.MemoryPage {
	p := survey.NewMemoryPage()
	for _, f := range r.Fields {
		p.Add(f.toField())
	}
	return p
}

// Validate checks the request against its validation tags
func (r *PageRequest) Validate() error {
	return validateStruct(r)
}

// MutationRequest reports that Changed was edited.
type MutationRequest struct {
	PageRequest
	Changed string `json:"changed" validate:"required"`
}

// Validate checks the request against its validation tags
func (r *MutationRequest) Validate() error {
	return validateStruct(r)
}

// PageResponse is the page after the server applied restored or derived values.
type PageResponse struct {
	Page     survey.PageID  `json:"page"`
	Fields   []FieldState   `json:"fields"`
	Derived  *derive.Values `json:"derived,omitempty"`
	Restored *int           `json:"restored,omitempty"`
}

// ScoreRequest records one quality score.
type ScoreRequest struct {
	FieldID    string `json:"fieldId" validate:"required"`
	Value      string `json:"value"`
	ScoreGroup string `json:"scoreGroup" validate:"required"`
	Section    string `json:"section" validate:"required"`
}

// Validate checks the request against its validation tags
func (r *ScoreRequest) Validate() error {
	return validateStruct(r)
}

// AccuracyRequest selects the accuracy assessment shown on the conformance page.
type AccuracyRequest struct {
	AccuracyType string `json:"accuracyType" validate:"required"`
}

// Validate checks the request against its validation tags
func (r *AccuracyRequest) Validate() error {
	return validateStruct(r)
}

// AccuracyResponse names the detail panel to show.
type AccuracyResponse struct {
	AccuracyType string `json:"accuracyType"`
	Panel        string `json:"panel"`
}

// NavigationResponse describes where a page's buttons lead.
type NavigationResponse struct {
	Page      survey.PageID `json:"page"`
	Available bool          `json:"available"`
	Next      survey.PageID `json:"next,omitempty"`
	Previous  survey.PageID `json:"previous,omitempty"`
}

func validateStruct(v any) error {
	validate := validator.New()
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ErrValidation{Field: fe.Field(), Message: "failed on '" + fe.Tag() + "'"}
		}
		return &ErrValidation{Message: err.Error()}
	}
	return nil
}
