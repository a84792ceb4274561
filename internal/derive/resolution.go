package derive

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DeviationUnavailable is shown when either side of a spatial comparison is missing.
const DeviationUnavailable = "Cannot calculate - missing optimal or actual values"

// aggregationRank orders administrative levels from coarsest to finest.
var aggregationRank = map[string]int{
	"country":   1,
	"region":    2,
	"city":      3,
	"household": 4,
}

var aggregationLabels = map[string]string{
	"household": "Household level",
	"city":      "City level",
	"region":    "Regional level",
	"country":   "Country level",
}

// AggregationLabel names an aggregation level for display.
func AggregationLabel(level string) string {
	if label, ok := aggregationLabels[level]; ok {
		return label
	}
	if level == "" {
		return ""
	}
	return strings.ToUpper(level[:1]) + level[1:]
}

// OptimalResolution is the use-case resolution requirement as a label, e.g.
// "10 m" or "Regional level". It is only defined for use-case evaluations.
func OptimalResolution(in Inputs) (string, bool) {
	if !in.IsUseCase() {
		return "", false
	}
	switch StrategyFor(in.DataType) {
	case StrategyPixel:
		if in.PixelSize != "" {
			return in.PixelSize + " m", true
		}
	case StrategyAggregation:
		if in.AggregationLevel != "" {
			return AggregationLabel(in.AggregationLevel), true
		}
	default:
		if in.GridSize != "" {
			return in.GridSize + " m", true
		}
	}
	return "", false
}

// Actual holds the resolution of the dataset as entered on the design page.
type Actual struct {
	PixelSize        string
	GridSize         string
	AggregationLevel string
}

// SpatialDeviation compares the actual resolution against the optimal one
// using the data type's strategy. Sizes are differenced in meters; aggregation
// levels are counted apart on the country..household scale.
func SpatialDeviation(in Inputs, actual Actual) string {
	switch StrategyFor(in.DataType) {
	case StrategyPixel:
		return meterDeviation(in.PixelSize, actual.PixelSize)
	case StrategyAggregation:
		return levelDeviation(in.AggregationLevel, actual.AggregationLevel)
	default:
		return meterDeviation(in.GridSize, actual.GridSize)
	}
}

func meterDeviation(optimal, actual string) string {
	o, ok1 := ParseNumber(optimal)
	a, ok2 := ParseNumber(actual)
	if !ok1 || !ok2 {
		return DeviationUnavailable
	}
	return fmt.Sprintf("%.2f m", a-o)
}

func levelDeviation(optimal, actual string) string {
	if optimal == "" || actual == "" {
		return DeviationUnavailable
	}
	if optimal == actual {
		return "Perfect match"
	}
	diff := aggregationRank[actual] - aggregationRank[optimal]
	if diff > 0 {
		return fmt.Sprintf("%d levels finer than optimal", diff)
	}
	return fmt.Sprintf("%d levels coarser than optimal", -diff)
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the leading decimal number of s, ignoring surrounding
// whitespace and any trailing unit such as " m".
func ParseNumber(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Suggestion is a recommended resolution score with the rule that produced it.
type Suggestion struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// Text renders the suggestion as shown beside the score control.
func (s Suggestion) Text() string {
	return "Suggested: " + s.Explanation
}

// SuggestScore recommends a resolution score from the actual resolution. The
// data type's strategy picks which actual value is consulted.
func SuggestScore(dataType string, actual Actual) (Suggestion, bool) {
	switch StrategyFor(dataType) {
	case StrategyPixel:
		return sizeSuggestion("Pixel", actual.PixelSize)
	case StrategyAggregation:
		return levelSuggestion(actual.AggregationLevel)
	default:
		return sizeSuggestion("Grid", actual.GridSize)
	}
}

func sizeSuggestion(kind, raw string) (Suggestion, bool) {
	v, ok := ParseNumber(raw)
	if !ok {
		return Suggestion{}, false
	}
	switch {
	case v > 30:
		return Suggestion{1, kind + " size > 30m suggests score 1"}, true
	case v >= 5:
		return Suggestion{2, kind + " size 5-30m suggests score 2"}, true
	case v >= 1:
		return Suggestion{3, kind + " size 1-5m suggests score 3"}, true
	default:
		return Suggestion{4, kind + " size < 1m suggests score 4"}, true
	}
}

func levelSuggestion(level string) (Suggestion, bool) {
	switch level {
	case "country":
		return Suggestion{1, "Country/Federation level suggests score 1"}, true
	case "region":
		return Suggestion{2, "Region/Province/State level suggests score 2"}, true
	case "city":
		return Suggestion{3, "City/District/Village level suggests score 3"}, true
	case "household":
		return Suggestion{4, "Household level suggests score 4"}, true
	}
	return Suggestion{}, false
}
