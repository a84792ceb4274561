// Package observability provides logger construction and formatted output
// utilities for verbose CLI mode.
package observability

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/geoquality/surveyform/internal/dashboard"
	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/schemas"
	"github.com/geoquality/surveyform/internal/survey"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintScoreSummary outputs per-group averages and the overall score.
func (p *Printer) PrintScoreSummary(sum survey.Summary) {
	var sb strings.Builder

	if sum.TotalScores == 0 {
		sb.WriteString("No quality scores recorded yet.")
		p.printBox("QUALITY SCORES", sb.String())
		return
	}

	sb.WriteString(fmt.Sprintf("Total scores: %d\n", sum.TotalScores))
	if sum.Overall != nil {
		sb.WriteString(fmt.Sprintf("Overall:      %.2f/4.0", *sum.Overall))
		if band, ok := derive.Interpret(*sum.Overall); ok {
			sb.WriteString(fmt.Sprintf(" (%s)", band.Rating))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for _, g := range sum.Groups() {
		gs := sum.ByGroup[g]
		if gs.Average == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("  • %-26s %.2f (%d)\n", g, *gs.Average, gs.Count))
	}

	p.printBox("QUALITY SCORES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDerived outputs the values computed by the derivation engine.
func (p *Printer) PrintDerived(v derive.Values) {
	var sb strings.Builder

	row := func(label, value string) {
		if value == "" {
			value = "-"
		}
		sb.WriteString(fmt.Sprintf("%-20s %s\n", label, value))
	}
	row("Evaluation type:", v.Inputs.EvaluationType)
	row("Data type:", v.Inputs.DataType)
	row("Optimal resolution:", v.OptimalResolution)
	row("Spatial deviation:", v.SpatialDeviation)
	row("Temporal deviation:", v.TemporalDeviation)
	row("Coverage deviation:", v.CoverageDeviation)
	if v.Suggestion != nil {
		row("Suggested score:", fmt.Sprintf("%d", v.Suggestion.Score))
		sb.WriteString(fmt.Sprintf("  %s\n", v.Suggestion.Explanation))
	}
	if v.Band != nil {
		row("Interpretation:", v.Band.Rating)
	}
	if !v.ConformanceApplies {
		sb.WriteString("Conformance section skipped (primary data)\n")
	}

	p.printBox("DERIVED VALUES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidation outputs the outcome of a schema check.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintValidation(name string, err error) {
	if err == nil {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ "+strings.ToUpper(name)+" VALID")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var verr *schemas.ValidationError
	if !errors.As(err, &verr) {
		p.printBox("VALIDATION FAILED", err.Error())
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d problems:\n\n", len(verr.Errors)))
	for i, fe := range verr.Errors {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", fe.Field))
		sb.WriteString(fmt.Sprintf("  %s\n", fe.Message))
		if i < len(verr.Errors)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(strings.ToUpper(name)+" SCHEMA VIOLATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDashboard outputs headline metrics and the best-scored datasets.
func (p *Printer) PrintDashboard(d dashboard.Dashboard) {
	var sb strings.Builder

	if d.Total == 0 {
		p.printBox("SURVEY DASHBOARD", "No survey data available")
		return
	}

	sb.WriteString(fmt.Sprintf("Evaluations: %d\n\n", d.Total))
	for _, m := range d.Metrics {
		sb.WriteString(fmt.Sprintf("%-18s %s / %d\n", m.Title, m.Display(), m.Max))
	}

	if len(d.Cards) > 0 {
		sb.WriteString("\nDatasets:\n")
		count := min(len(d.Cards), maxItemsToShow)
		for i := 0; i < count; i++ {
			c := d.Cards[i]
			sb.WriteString(fmt.Sprintf("  • %s (%.1f)\n", truncate(c.Title, 40), c.Score))
		}
		if len(d.Cards) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(d.Cards)-maxItemsToShow))
		}
	}

	p.printBox("SURVEY DASHBOARD", strings.TrimSuffix(sb.String(), "\n"))
}
