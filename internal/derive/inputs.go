// Package derive computes the display values that follow from what the
// evaluator has already entered: optimal resolution, resolution, temporal and
// coverage deviations, the overall interpretation band, score suggestions and
// conformance-aware page routing. Every function here is pure; Engine applies
// them to a page.
package derive

import (
	"strings"

	"github.com/geoquality/surveyform/internal/survey"
)

// Evaluation types and data types with special handling.
const (
	EvaluationUseCase   = "use-case-adequacy"
	DataTypeRemote      = "remote-sensing"
	DataTypeOther       = "other"
	ProcessingPrimary   = "primary"
	ProcessingProducts  = "products"
	legacyProcessingKey = "dataProcessingLevel"
)

// Inputs are the persisted first-section answers the derived values depend on.
type Inputs struct {
	EvaluationType        string
	DataType              string
	DataProcessingLevel   string
	PixelSize             string
	GridSize              string
	AggregationLevel      string
	OptimumDataCollection string
}

// IsUseCase reports whether the evaluation targets a specific use case.
func (in Inputs) IsUseCase() bool {
	return in.EvaluationType == EvaluationUseCase
}

// ResolveInputs reads each input from the legacy flat keys first and falls
// back to the snapshot. Either argument may be nil.
func ResolveInputs(snap *survey.Snapshot, legacy map[string]string) Inputs {
	var basic, spatial, useCase survey.Subsection
	if snap != nil {
		basic = snap.Subsection(survey.Section1, survey.SubBasic)
		spatial = snap.Subsection(survey.Section1, survey.SubSpatial)
		useCase = snap.Subsection(survey.Section1, survey.SubUseCase)
	}

	pick := func(key string, sub survey.Subsection, field string) string {
		if v := strings.TrimSpace(legacy[key]); v != "" {
			return v
		}
		return strings.TrimSpace(sub.Text(field))
	}

	return Inputs{
		EvaluationType:        pick("evaluationType", basic, "evaluationType"),
		DataType:              pick("dataType", basic, "dataType"),
		DataProcessingLevel:   pick(legacyProcessingKey, basic, "dataprocessinglevel"),
		PixelSize:             pick("pixelSize", spatial, "pixelSize"),
		GridSize:              pick("gridSize", spatial, "gridSize"),
		AggregationLevel:      pick("aggregationLevel", spatial, "aggregationLevel"),
		OptimumDataCollection: pick("optimumDataCollection", useCase, "optimumDataCollection"),
	}
}

// Strategy selects how resolution is expressed and compared.
type Strategy int

const (
	StrategyGrid Strategy = iota
	StrategyPixel
	StrategyAggregation
)

func (s Strategy) String() string {
	switch s {
	case StrategyPixel:
		return "pixel"
	case StrategyAggregation:
		return "aggregation"
	default:
		return "grid"
	}
}

// StrategyFor routes a data type: remote sensing compares pixel sizes, an
// unset or "other" type compares grid sizes, everything else compares
// aggregation levels.
func StrategyFor(dataType string) Strategy {
	switch dataType {
	case DataTypeRemote:
		return StrategyPixel
	case "", DataTypeOther:
		return StrategyGrid
	default:
		return StrategyAggregation
	}
}
