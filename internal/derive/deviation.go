package derive

import (
	"fmt"
	"math"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseDate accepts a form date, a datetime-local value or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TemporalDeviation is the absolute distance between the optimum collection
// date and the latest update, rounded to whole days.
func TemporalDeviation(optimum, latest string) (string, bool) {
	o, ok1 := ParseDate(optimum)
	l, ok2 := ParseDate(latest)
	if !ok1 || !ok2 {
		return "", false
	}
	days := math.Round(math.Abs(l.Sub(o).Hours()) / 24)
	return fmt.Sprintf("%d days", int64(days)), true
}

// CoverageDeviation is the share of the area of interest left uncovered.
// Coverage above 100 % clamps to zero.
func CoverageDeviation(coverage string) (string, bool) {
	c, ok := ParseNumber(coverage)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%.1f %%", math.Max(0, 100-c)), true
}

// Band is an interpretation of the overall score.
type Band struct {
	Rating      string `json:"rating"`
	Description string `json:"description"`
}

var bands = []struct {
	min       float64
	inclusive bool
	band      Band
}{
	{3.5, true, Band{"EXCELLENT", "The dataset demonstrates very high quality across evaluated dimensions."}},
	{2.5, true, Band{"GOOD", "The dataset shows good quality with some areas for improvement."}},
	{1.5, true, Band{"FAIR", "The dataset has moderate quality with several limitations."}},
	{0, false, Band{"POOR", "The dataset has significant quality issues requiring attention."}},
}

// Interpret maps an overall average onto its band. Zero and negative averages
// have no interpretation.
func Interpret(overall float64) (Band, bool) {
	for _, b := range bands {
		if overall > b.min || (b.inclusive && overall == b.min) {
			return b.band, true
		}
	}
	return Band{}, false
}
