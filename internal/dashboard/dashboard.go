// Package dashboard aggregates stored survey records into the figures shown
// on the evaluation dashboard.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/submission"
)

// MaxScore is the top of the scoring scale.
const MaxScore = 4

// Category is one of the four dashboard score categories.
type Category string

const (
	Metadata      Category = "Metadata"
	Accessibility Category = "Accessibility"
	Spatial       Category = "Spatial"
	Design        Category = "Design"
)

// Categories in display order.
var Categories = []Category{Metadata, Accessibility, Spatial, Design}

var metricTitles = map[Category]string{
	Metadata:      "Metadata Quality",
	Accessibility: "Accessibility",
	Spatial:       "Spatial Precision",
	Design:        "Design Quality",
}

// DesignScore is the mean of the three design sub-scores.
func DesignScore(r submission.SurveyRecord) float64 {
	return (r.DesignResolutionScore + r.DesignCoverageScore + r.DesignTimelinessScore) / 3
}

// Score returns the record's score in category c.
func Score(r submission.SurveyRecord, c Category) float64 {
	switch c {
	case Metadata:
		return r.MetadataScore
	case Accessibility:
		return r.AccessibilityScore
	case Spatial:
		return r.SpatialScore
	case Design:
		return DesignScore(r)
	}
	return 0
}

// Averages holds the mean score per category.
type Averages map[Category]float64

// AverageScores averages each category over records. It reports false when
// there are no records.
func AverageScores(records []submission.SurveyRecord) (Averages, bool) {
	if len(records) == 0 {
		return nil, false
	}
	avg := Averages{}
	for _, r := range records {
		for _, c := range Categories {
			avg[c] += Score(r, c)
		}
	}
	for c := range avg {
		avg[c] /= float64(len(records))
	}
	return avg, true
}

// Metric is one headline figure.
type Metric struct {
	Title string  `json:"title"`
	Value float64 `json:"value"`
	Max   int     `json:"max"`
}

// Display is the value as shown, one decimal.
func (m Metric) Display() string {
	return fmt.Sprintf("%.1f", m.Value)
}

// Metrics returns the headline figures in category order.
func Metrics(records []submission.SurveyRecord) []Metric {
	avg, ok := AverageScores(records)
	if !ok {
		return nil
	}
	out := make([]Metric, 0, len(Categories))
	for _, c := range Categories {
		out = append(out, Metric{Title: metricTitles[c], Value: avg[c], Max: MaxScore})
	}
	return out
}

// Series is one stacked bar series: how many records scored Score in each category.
type Series struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Data  []int  `json:"data"`
}

// roundHalfUp rounds like the dashboard chart does (halves go up).
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// ScoreDistribution counts records per score 1..4 per category. The design
// score is rounded before counting.
func ScoreDistribution(records []submission.SurveyRecord) []Series {
	out := make([]Series, 0, MaxScore)
	for score := 1; score <= MaxScore; score++ {
		s := Series{Name: fmt.Sprintf("Score %d", score), Score: score, Data: make([]int, len(Categories))}
		for i, c := range Categories {
			for _, r := range records {
				v := Score(r, c)
				if c == Design {
					v = float64(roundHalfUp(v))
				}
				if v == float64(score) {
					s.Data[i]++
				}
			}
		}
		out = append(out, s)
	}
	return out
}

// DayCount is the number of evaluations assessed on one day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// EvaluationsPerDay groups records by UTC assessment day, oldest first.
// Records with an unreadable date are left out.
func EvaluationsPerDay(records []submission.SurveyRecord) []DayCount {
	counts := map[string]int{}
	for _, r := range records {
		t, ok := derive.ParseDate(r.AssessmentDate)
		if !ok {
			continue
		}
		counts[t.UTC().Format("2006-01-02")]++
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]DayCount, len(days))
	for i, d := range days {
		out[i] = DayCount{Date: d, Count: counts[d]}
	}
	return out
}

// Card summarizes one dataset in the listing.
type Card struct {
	Title       string   `json:"title"`
	Score       float64  `json:"score"`
	Date        string   `json:"date"`
	Evaluator   string   `json:"evaluator"`
	Institution string   `json:"institution"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// OverallScore is the mean of the four category scores of r.
func OverallScore(r submission.SurveyRecord) float64 {
	var sum float64
	for _, c := range Categories {
		sum += Score(r, c)
	}
	return sum / float64(len(Categories))
}

// Cards builds one card per record, in record order.
func Cards(records []submission.SurveyRecord) []Card {
	out := make([]Card, 0, len(records))
	for _, r := range records {
		date := r.AssessmentDate
		if t, ok := derive.ParseDate(r.AssessmentDate); ok {
			date = t.UTC().Format("2006-01-02")
		}
		kw := r.Keywords
		if kw == nil {
			kw = []string{}
		}
		out = append(out, Card{
			Title:       r.DatasetTitle,
			Score:       OverallScore(r),
			Date:        date,
			Evaluator:   r.Evaluator,
			Institution: r.Institution,
			Description: r.DatasetDescription,
			Keywords:    kw,
		})
	}
	return out
}

// Dashboard is every figure for one listing.
type Dashboard struct {
	Total        int        `json:"total"`
	Metrics      []Metric   `json:"metrics"`
	Distribution []Series   `json:"distribution"`
	Timeline     []DayCount `json:"timeline"`
	Cards        []Card     `json:"cards"`
}

// Build aggregates records.
func Build(records []submission.SurveyRecord) Dashboard {
	return Dashboard{
		Total:        len(records),
		Metrics:      Metrics(records),
		Distribution: ScoreDistribution(records),
		Timeline:     EvaluationsPerDay(records),
		Cards:        Cards(records),
	}
}

// Lister fetches survey records.
type Lister interface {
	ListSurveys(ctx context.Context, q submission.Query) ([]submission.SurveyRecord, error)
}

// Load fetches the records matching q and aggregates them.
func Load(ctx context.Context, l Lister, q submission.Query) (Dashboard, error) {
	records, err := l.ListSurveys(ctx, q)
	if err != nil {
		return Dashboard{}, fmt.Errorf("failed to list surveys: %w", err)
	}
	return Build(records), nil
}
