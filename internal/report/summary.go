// Package report renders a survey snapshot as a human-readable summary, as
// spider-chart data and as the downloadable evaluation export.
package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const notSpecified = "Not specified"

// TimeLayout formats the evaluation timestamps in the summary.
const TimeLayout = "2006-01-02 15:04:05 MST"

var strict = bluemonday.StrictPolicy()

// clean strips markup from a free-text answer and normalizes it for display.
func clean(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.TrimSpace(norm.NFC.String(s))
}

func orDefault(s, def string) string {
	if s = clean(s); s == "" {
		return def
	}
	return s
}

// GroupTitle turns a score group key such as "design-resolution" into "Design Resolution".
func GroupTitle(group string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(group, "-", " "))
}

// SummaryText renders the plain-text evaluation summary. Timestamps are shown in loc
// (UTC when nil).
func SummaryText(snap *survey.Snapshot, sum survey.Summary, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	basic := snap.Subsection(survey.Section1, survey.SubBasic)
	useCase := snap.Subsection(survey.Section1, survey.SubUseCase)
	descriptives := snap.Subsection(survey.Section2, survey.SubDescriptives)

	var b strings.Builder
	b.WriteString("DATA QUALITY EVALUATION SUMMARY\n")
	b.WriteString("=====================================\n\n")

	b.WriteString("DATASET INFORMATION:\n")
	fmt.Fprintf(&b, "- Title: %s\n", orDefault(basic.Text("datasetTitle"), notSpecified))
	fmt.Fprintf(&b, "- Data Type: %s\n", orDefault(basic.Text("dataType"), notSpecified))
	fmt.Fprintf(&b, "- Processing Level: %s\n", orDefault(basic.Text("dataprocessinglevel"), notSpecified))
	fmt.Fprintf(&b, "- Evaluation Type: %s\n", orDefault(basic.Text("evaluationType"), notSpecified))
	fmt.Fprintf(&b, "- Language: %s\n", orDefault(descriptives.Text("languageDropdown"), notSpecified))
	fmt.Fprintf(&b, "- Evaluator: %s\n", orDefault(basic.Text("evaluatorName"), notSpecified))
	fmt.Fprintf(&b, "- Organization: %s\n\n", orDefault(basic.Text("evaluatorOrg"), notSpecified))

	if basic.Text("evaluationType") == derive.EvaluationUseCase {
		spatial := snap.Subsection(survey.Section1, survey.SubSpatial)
		aoi := snap.Subsection(survey.Section1, survey.SubAOI)

		b.WriteString("USE-CASE SPECIFIC REQUIREMENTS:\n")
		fmt.Fprintf(&b, "- Description: %s\n", orDefault(useCase.Text("useCaseDescription"), notSpecified))
		fmt.Fprintf(&b, "- Optimum Collection Date: %s\n", orDefault(useCase.Text("optimumDataCollection"), notSpecified))
		if v := clean(spatial.Text("pixelSize")); v != "" {
			fmt.Fprintf(&b, "- Optimum Pixel Size: %sm\n", v)
		}
		if v := clean(spatial.Text("gridSize")); v != "" {
			fmt.Fprintf(&b, "- Optimum Grid Size: %sm\n", v)
		}
		if v := clean(spatial.Text("aggregationLevel")); v != "" {
			fmt.Fprintf(&b, "- Optimum Aggregation: %s\n", v)
		}
		if v := clean(aoi.Text("aoiType")); v != "" {
			fmt.Fprintf(&b, "- AOI Type: %s\n", v)
		}
		fmt.Fprintf(&b, "- Other Requirements: %s\n\n", orDefault(useCase.Text("otherRequirements"), "None specified"))
	}

	identifier := clean(descriptives.Text("identifier"))
	description := clean(descriptives.Text("datasetDescription"))
	if identifier != "" || description != "" {
		b.WriteString("DATASET DESCRIPTION:\n")
		if identifier != "" {
			fmt.Fprintf(&b, "- Identifier: %s\n", identifier)
		}
		if description != "" {
			fmt.Fprintf(&b, "- Description: %s\n", description)
		}
		if kw := keywords(descriptives); len(kw) > 0 {
			fmt.Fprintf(&b, "- Keywords: %s\n", strings.Join(kw, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("QUALITY ASSESSMENT SCORES:\n")
	if sum.TotalScores > 0 && sum.Overall != nil {
		overall := *sum.Overall
		fmt.Fprintf(&b, "- Total Assessments: %d\n", sum.TotalScores)
		fmt.Fprintf(&b, "- Overall Score: %.2f / 4.0\n\n", overall)

		b.WriteString("Detailed Scores by Category:\n")
		for _, g := range sum.Groups() {
			gs := sum.ByGroup[g]
			if gs.Average == nil {
				continue
			}
			plural := ""
			if gs.Count > 1 {
				plural = "s"
			}
			fmt.Fprintf(&b, "  • %s: %.2f/4.0 (%d assessment%s)\n", GroupTitle(g), *gs.Average, gs.Count, plural)
		}

		b.WriteString("\nPERFORMANCE INTERPRETATION:\n")
		if band, ok := derive.Interpret(overall); ok {
			fmt.Fprintf(&b, "- Overall Rating: %s (%.2f/4.0)\n", band.Rating, overall)
			fmt.Fprintf(&b, "- %s\n", band.Description)
		}
	} else {
		b.WriteString("- No quality scores available yet.\n")
	}

	coverage := snap.Subsection(survey.Section3, survey.SubSpatialCoverage)
	if v := clean(coverage.Text("aoiCoverage")); v != "" {
		b.WriteString("\nSPATIAL COVERAGE ANALYSIS:\n")
		fmt.Fprintf(&b, "- AOI Coverage: %s%%\n", v)
		if cc := clean(coverage.Text("cloudCover")); cc != "" {
			fmt.Fprintf(&b, "- Cloud Cover: %s%%\n", cc)
		}
	}

	b.WriteString("\nEVALUATION METADATA:\n")
	fmt.Fprintf(&b, "- Created: %s\n", snap.Timestamps.Created.In(loc).Format(TimeLayout))
	fmt.Fprintf(&b, "- Last Modified: %s\n", snap.Timestamps.LastModified.In(loc).Format(TimeLayout))

	return b.String()
}

func keywords(descriptives survey.Subsection) []string {
	var out []string
	for _, k := range descriptives[survey.KeywordsKey].Items() {
		if k = clean(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
