package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/geoquality/surveyform/internal/dashboard"
	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/schemas"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestPrintScoreSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintScoreSummary(survey.Summary{
		ByGroup: map[string]survey.GroupSummary{
			"design-resolution": {Count: 2, Average: ptr(2.5), Scores: []int{3, 2}},
			"context":           {Count: 1, Average: ptr(4), Scores: []int{4}},
			"empty":             {},
		},
		Overall:     ptr(3),
		TotalScores: 3,
	})
	output := buf.String()

	assert.Contains(t, output, "QUALITY SCORES")
	assert.Contains(t, output, "Total scores: 3")
	assert.Contains(t, output, "3.00/4.0 (GOOD)")
	assert.Contains(t, output, "design-resolution")
	assert.NotContains(t, output, "empty")
	assert.Less(t, strings.Index(output, "context"), strings.Index(output, "design-resolution"))
}

func TestPrintScoreSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintScoreSummary(survey.Summary{})
	assert.Contains(t, buf.String(), "No quality scores recorded yet.")
}

func TestPrintDerived(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDerived(derive.Values{
		Inputs:            derive.Inputs{EvaluationType: derive.EvaluationUseCase, DataType: derive.DataTypeRemote},
		OptimalResolution: "10 m",
		SpatialDeviation:  "5.00 m",
		Suggestion:        &derive.Suggestion{Score: 2, Explanation: "Pixel size 5-30m suggests score 2"},
		Band:              &derive.Band{Rating: "GOOD"},
	})
	output := buf.String()

	assert.Contains(t, output, "DERIVED VALUES")
	assert.Contains(t, output, "10 m")
	assert.Contains(t, output, "Suggested score:")
	assert.Contains(t, output, "Pixel size 5-30m")
	assert.Contains(t, output, "Conformance section skipped")
}

func TestPrintValidation(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintValidation("export", nil)
	assert.Contains(t, buf.String(), "✅ EXPORT VALID")

	buf.Reset()
	p.PrintValidation("export", &schemas.ValidationError{Errors: []schemas.FieldError{
		{Field: "metadata.version", Message: "must be one of the following: \"1.0\""},
		{Field: "exportId", Message: "does not match pattern"},
	}})
	output := buf.String()
	assert.Contains(t, output, "EXPORT SCHEMA VIOLATIONS")
	assert.Contains(t, output, "Found 2 problems")
	assert.Contains(t, output, "metadata.version")

	buf.Reset()
	p.PrintValidation("snapshot", errors.New("disk gone"))
	assert.Contains(t, buf.String(), "disk gone")
}

func TestPrintDashboard(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDashboard(dashboard.Dashboard{})
	assert.Contains(t, buf.String(), "No survey data available")

	buf.Reset()
	p.PrintDashboard(dashboard.Dashboard{
		Total:   1,
		Metrics: []dashboard.Metric{{Title: "Metadata Quality", Value: 3.25, Max: 4}},
		Cards:   []dashboard.Card{{Title: strings.Repeat("Very long dataset title ", 4), Score: 2.75}},
	})
	output := buf.String()
	assert.Contains(t, output, "Metadata Quality   3.2 / 4")
	assert.Contains(t, output, "...")
	assert.Contains(t, output, "(2.8)")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("T", strings.Repeat("x", 100))
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "json")
	logger.Info("hidden")
	logger.Warn("shown", "field", "aoiCoverage")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, `"msg":"shown"`)
	assert.Contains(t, output, `"field":"aoiCoverage"`)

	buf.Reset()
	NewLogger(&buf, "", "text").Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
