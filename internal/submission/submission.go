// Package submission turns the final evaluation form into the payload
// accepted by the survey API and talks to that API.
package submission

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/go-playground/validator/v10"
)

// RequiredMessage is shown when any required field is empty.
const RequiredMessage = "Please fill all required fields (marked with *)"

const (
	OptionFinal = "final"
	OptionDraft = "draft"
)

// Form is the final evaluation form as entered. Field order is form order.
type Form struct {
	DatasetTitle                   string `json:"datasetTitle" validate:"required"`
	DatasetDescription             string `json:"datasetDescription" validate:"required"`
	DatasetIdentifier              string `json:"datasetIdentifier"`
	DatasetSubject                 string `json:"datasetSubject"`
	DatasetContent                 string `json:"datasetContent"`
	MetadataDocumentationLink      string `json:"metadataDocumentationLink"`
	MetadataDocumentationScore     string `json:"metadataDocumentationScore" validate:"required"`
	MetadataDocumentationCertainty string `json:"metadataDocumentationCertainty" validate:"required"`
	AccessSource                   string `json:"accessSource"`
	AccessPublisher                string `json:"accessPublisher"`
	AccessRegistration             string `json:"accessRegistration"`
	AccessAPI                      string `json:"accessApi"`
	AccessRights                   string `json:"accessRights"`
	AccessFormat                   string `json:"accessFormat"`
	AccessLanguage                 string `json:"accessLanguage"`
	AccessScore                    string `json:"accessScore" validate:"required"`
	AccessScoreCertainty           string `json:"accessScoreCertainty" validate:"required"`
	SpatialCrs                     string `json:"spatialCrs"`
	SpatialAccuracy                string `json:"spatialAccuracy"`
	SpatialScore                   string `json:"spatialScore" validate:"required"`
	SpatialScoreCertainty          string `json:"spatialScoreCertainty" validate:"required"`
	DesignResolution               string `json:"designResolution"`
	DesignResolutionScore          string `json:"designResolutionScore" validate:"required"`
	DesignResolutionCertainty      string `json:"designResolutionCertainty" validate:"required"`
	DesignCoverage                 string `json:"designCoverage"`
	DesignCoverageScore            string `json:"designCoverageScore" validate:"required"`
	DesignCoverageCertainty        string `json:"designCoverageCertainty" validate:"required"`
	DesignTimelinessResolution     string `json:"designTimelinessResolution"`
	DesignTimelinessExtent         string `json:"designTimelinessExtent"`
	DesignTimelinessDate           string `json:"designTimelinessDate"`
	DesignTimelinessScore          string `json:"designTimelinessScore" validate:"required"`
	DesignTimelinessCertainty      string `json:"designTimelinessCertainty" validate:"required"`
	AssessmentEvaluator            string `json:"assessmentEvaluator" validate:"required"`
	AssessmentInstitution          string `json:"assessmentInstitution" validate:"required"`
	AssessmentDate                 string `json:"assessmentDate" validate:"required"`
}

// FinalSubmission is the body of POST /api/survey.
type FinalSubmission struct {
	DatasetTitle                   string `json:"datasetTitle"`
	DatasetDescription             string `json:"datasetDescription"`
	DatasetIdentifier              string `json:"datasetIdentifier"`
	DatasetSubject                 string `json:"datasetSubject"`
	DatasetContent                 string `json:"datasetContent"`
	MetadataDocumentationLink      string `json:"metadataDocumentationLink"`
	MetadataDocumentationScore     int    `json:"metadataDocumentationScore"`
	MetadataDocumentationCertainty int    `json:"metadataDocumentationCertainty"`
	AccessSource                   string `json:"accessSource"`
	AccessPublisher                string `json:"accessPublisher"`
	AccessRegistration             string `json:"accessRegistration"`
	AccessAPI                      string `json:"accessApi"`
	AccessRights                   string `json:"accessRights"`
	AccessFormat                   string `json:"accessFormat"`
	AccessLanguage                 string `json:"accessLanguage"`
	AccessScore                    int    `json:"accessScore"`
	AccessScoreCertainty           int    `json:"accessScoreCertainty"`
	SpatialCrs                     string `json:"spatialCrs"`
	SpatialAccuracy                string `json:"spatialAccuracy"`
	SpatialScore                   int    `json:"spatialScore"`
	SpatialScoreCertainty          int    `json:"spatialScoreCertainty"`
	DesignResolution               string `json:"designResolution"`
	DesignResolutionScore          int    `json:"designResolutionScore"`
	DesignResolutionCertainty      int    `json:"designResolutionCertainty"`
	DesignCoverage                 string `json:"designCoverage"`
	DesignCoverageScore            int    `json:"designCoverageScore"`
	DesignCoverageCertainty        int    `json:"designCoverageCertainty"`
	DesignTimelinessResolution     string `json:"designTimelinessResolution"`
	DesignTimelinessExtent         string `json:"designTimelinessExtent"`
	DesignTimelinessDate           string `json:"designTimelinessDate"`
	DesignTimelinessScore          int    `json:"designTimelinessScore"`
	DesignTimelinessCertainty      int    `json:"designTimelinessCertainty"`
	AssessmentEvaluator            string `json:"assessmentEvaluator"`
	AssessmentInstitution          string `json:"assessmentInstitution"`
	AssessmentDate                 string `json:"assessmentDate"`
	SubmitOption                   string `json:"submitOption"`
}

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	// Fields holds JSON field names in form order.
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// First is the field that should receive focus.
func (e *ValidationError) First() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0]
}

// FirstElementID is the page element id of the first failing field.
func (e *ValidationError) FirstElementID() string {
	return ElementID(e.First())
}

// ElementID converts a form field name to its element id (datasetTitle -> dataset-title).
func ElementID(field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return jsonName(f)
	})
	return validate
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// Validate checks that every required field is filled in.
func (f *Form) Validate() error {
	trimmed := *f
	v := reflect.ValueOf(&trimmed).Elem()
	for i := 0; i < v.NumField(); i++ {
		v.Field(i).SetString(strings.TrimSpace(v.Field(i).String()))
	}

	err := newValidator().Struct(&trimmed)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Message: RequiredMessage}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, fe.Field())
	}
	return out
}

// Build validates the form and produces the final submission payload.
func (f *Form) Build() (*FinalSubmission, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	sub := &FinalSubmission{SubmitOption: OptionFinal}
	src := reflect.ValueOf(f).Elem()
	dst := reflect.ValueOf(sub).Elem()
	var bad []string
	for i := 0; i < src.NumField(); i++ {
		name := src.Type().Field(i).Name
		raw := strings.TrimSpace(src.Field(i).String())
		out := dst.FieldByName(name)
		switch out.Kind() {
		case reflect.Int:
			n, ok := survey.ParseScore(raw)
			if !ok {
				bad = append(bad, jsonName(src.Type().Field(i)))
				continue
			}
			out.SetInt(int64(n))
		default:
			out.SetString(raw)
		}
	}
	if len(bad) > 0 {
		return nil, &ValidationError{Fields: bad, Message: "score fields must be whole numbers"}
	}

	date, ok := derive.ParseDate(sub.AssessmentDate)
	if !ok {
		return nil, &ValidationError{Fields: []string{"assessmentDate"}, Message: "assessment date is not a valid date"}
	}
	sub.AssessmentDate = FormatDate(date)
	return sub, nil
}

// FormatDate renders t the way the survey API stores dates.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// FormFromFields reads the form from a page, matching fields by element id.
func FormFromFields(fs survey.FieldSet) Form {
	var f Form
	v := reflect.ValueOf(&f).Elem()
	for i := 0; i < v.NumField(); i++ {
		field, ok := fs.Field(ElementID(jsonName(v.Type().Field(i))))
		if !ok {
			continue
		}
		v.Field(i).SetString(field.Value)
	}
	return f
}

// DraftFromFields collects every filled-in field of the page, keyed by element id.
// Checked boxes are sent as "on"; unchecked ones are omitted.
func DraftFromFields(fs survey.FieldSet) map[string]string {
	out := map[string]string{}
	for _, f := range fs.Fields() {
		switch {
		case f.Kind == survey.FieldList:
			if len(f.Items) > 0 {
				out[f.ID] = strings.Join(f.Items, ",")
			}
		case f.Kind.IsBoolean():
			if f.Checked {
				value := f.Value
				if value == "" {
					value = "on"
				}
				out[f.ID] = value
			}
		case f.Value != "":
			out[f.ID] = f.Value
		}
	}
	return out
}
