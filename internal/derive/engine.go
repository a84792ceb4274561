package derive

import (
	"context"

	"github.com/geoquality/surveyform/internal/survey"
)

// Output field ids written by ApplyToPage.
const (
	FieldOptimalResolution = "optimalResolution"
	FieldSpatialDeviation  = "spatialDeviation"
	FieldTemporalDeviation = "temporalDeviation"
	FieldCoverageDeviation = "coverageDeviation"
	FieldOptimumAuto       = "optimumCollectionAuto"
	FieldScoreSuggestion   = "auto-score-suggestion"
)

// Values is every derived value for one snapshot and page.
type Values struct {
	Inputs             Inputs      `json:"inputs"`
	OptimalResolution  string      `json:"optimalResolution,omitempty"`
	SpatialDeviation   string      `json:"spatialDeviation"`
	TemporalDeviation  string      `json:"temporalDeviation,omitempty"`
	CoverageDeviation  string      `json:"coverageDeviation,omitempty"`
	OptimumCollection  string      `json:"optimumCollection,omitempty"`
	Suggestion         *Suggestion `json:"suggestion,omitempty"`
	Overall            *float64    `json:"overall"`
	Band               *Band       `json:"band,omitempty"`
	ConformanceApplies bool        `json:"conformanceApplies"`
}

// Compute derives all values from a snapshot, the legacy flat keys and the
// page's current controls. page may be nil. Controls on the page take
// precedence over persisted design-page values.
func Compute(snap *survey.Snapshot, legacy map[string]string, page survey.FieldSet) Values {
	in := ResolveInputs(snap, legacy)
	read := func(id string, section survey.SectionID, sub string) string {
		if page != nil {
			if f, ok := page.Field(id); ok {
				return f.Value
			}
		}
		if snap == nil {
			return ""
		}
		return snap.Subsection(section, sub).Text(id)
	}

	actual := Actual{
		PixelSize:        read("pixelResolutionValue", survey.Section3, survey.SubSpatialResolution),
		GridSize:         read("gridResolutionValue", survey.Section3, survey.SubSpatialResolution),
		AggregationLevel: read("aggregationResolutionLevel", survey.Section3, survey.SubSpatialResolution),
	}

	v := Values{
		Inputs:             in,
		SpatialDeviation:   SpatialDeviation(in, actual),
		OptimumCollection:  in.OptimumDataCollection,
		ConformanceApplies: ConformanceApplies(in),
	}
	if page != nil {
		if f, ok := page.Field("optimumDataCollection"); ok {
			v.OptimumCollection = f.Value
		}
	}

	v.OptimalResolution, _ = OptimalResolution(in)
	v.TemporalDeviation, _ = TemporalDeviation(v.OptimumCollection,
		read("latestUpdate", survey.Section3, survey.SubTimeliness))
	v.CoverageDeviation, _ = CoverageDeviation(
		read("aoiCoverage", survey.Section3, survey.SubSpatialCoverage))

	if s, ok := SuggestScore(in.DataType, actual); ok {
		v.Suggestion = &s
	}
	if snap != nil && snap.Scores.Overall != nil {
		overall := *snap.Scores.Overall
		v.Overall = &overall
		if b, ok := Interpret(overall); ok {
			v.Band = &b
		}
	}
	return v
}

// Engine recomputes derived values against the live store.
type Engine struct {
	store *survey.Store
}

// NewEngine returns an engine reading from store.
func NewEngine(store *survey.Store) *Engine {
	return &Engine{store: store}
}

// Compute derives values for the current snapshot and page.
func (e *Engine) Compute(ctx context.Context, page survey.FieldSet) Values {
	snap, legacy := e.store.State(ctx)
	return Compute(snap, legacy, page)
}

// ApplyToPage writes the derived values into the output controls present on
// page and returns them. Outputs the page does not render are skipped, and
// values that cannot be computed leave their control untouched.
func (e *Engine) ApplyToPage(ctx context.Context, page survey.FieldSet) Values {
	v := e.Compute(ctx, page)

	set := func(id, value string) {
		if value == "" {
			return
		}
		page.Set(id, survey.Text(value))
	}
	set(FieldOptimalResolution, v.OptimalResolution)
	set(FieldSpatialDeviation, v.SpatialDeviation)
	set(FieldTemporalDeviation, v.TemporalDeviation)
	set(FieldCoverageDeviation, v.CoverageDeviation)
	set(FieldOptimumAuto, v.OptimumCollection)
	if v.Suggestion != nil {
		set(FieldScoreSuggestion, v.Suggestion.Text())
	}

	e.store.Logger().Debug("derived values applied",
		"optimal", v.OptimalResolution,
		"spatial", v.SpatialDeviation,
		"temporal", v.TemporalDeviation,
		"coverage", v.CoverageDeviation)
	return v
}

// Refresh is ApplyToPage shaped as a synchronizer hook.
func (e *Engine) Refresh(ctx context.Context, page survey.FieldSet) {
	e.ApplyToPage(ctx, page)
}
