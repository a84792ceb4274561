package report

import (
	"time"

	"github.com/geoquality/surveyform/internal/survey"
)

// groupLabels are the axis labels for known score groups.
var groupLabels = map[string]string{
	"design-resolution":    "Spatial Resolution",
	"design-coverage":      "Spatial Coverage",
	"design-timeliness":    "Timeliness",
	"usecase-spatial-fit":  "Spatial Fit",
	"usecase-coverage-fit": "Coverage Fit",
	"usecase-temporal-fit": "Temporal Fit",
	"conformance":          "Conformance",
	"context":              "Context",
	"accuracy":             "Accuracy",
	"completeness":         "Completeness",
	"consistency":          "Consistency",
}

// GroupLabel returns the chart label for a score group, or the key itself.
func GroupLabel(group string) string {
	if l, ok := groupLabels[group]; ok {
		return l
	}
	return group
}

// ChartDataset is one radar series.
type ChartDataset struct {
	Label                     string    `json:"label"`
	Data                      []float64 `json:"data"`
	BackgroundColor           string    `json:"backgroundColor"`
	BorderColor               string    `json:"borderColor"`
	BorderWidth               int       `json:"borderWidth"`
	PointBackgroundColor      string    `json:"pointBackgroundColor"`
	PointBorderColor          string    `json:"pointBorderColor"`
	PointHoverBackgroundColor string    `json:"pointHoverBackgroundColor"`
	PointHoverBorderColor     string    `json:"pointHoverBorderColor"`
}

// SpiderChart is radar-chart data with one axis per scored group.
type SpiderChart struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// SpiderChartData plots the average of every group that has one, in group order.
func SpiderChartData(sum survey.Summary) SpiderChart {
	ds := ChartDataset{
		Label:                     "Data Quality Scores",
		Data:                      []float64{},
		BackgroundColor:           "rgba(13, 110, 253, 0.2)",
		BorderColor:               "rgba(13, 110, 253, 1)",
		BorderWidth:               2,
		PointBackgroundColor:      "rgba(13, 110, 253, 1)",
		PointBorderColor:          "#fff",
		PointHoverBackgroundColor: "#fff",
		PointHoverBorderColor:     "rgba(13, 110, 253, 1)",
	}
	chart := SpiderChart{Labels: []string{}}
	for _, g := range sum.Groups() {
		avg := sum.ByGroup[g].Average
		if avg == nil {
			continue
		}
		chart.Labels = append(chart.Labels, GroupLabel(g))
		ds.Data = append(ds.Data, *avg)
	}
	chart.Datasets = []ChartDataset{ds}
	return chart
}

// ChartExport is the standalone spider-chart download.
type ChartExport struct {
	SpiderChart SpiderChart `json:"spiderChart"`
	ChartConfig ChartConfig `json:"chartConfig"`
	Metadata    ChartMeta   `json:"metadata"`
}

// ChartConfig is the radar configuration handed to the charting front end.
type ChartConfig struct {
	Type    string       `json:"type"`
	Options ChartOptions `json:"options"`
}

type ChartOptions struct {
	Scales struct {
		R struct {
			BeginAtZero bool `json:"beginAtZero"`
			Max         int  `json:"max"`
			Ticks       struct {
				StepSize int `json:"stepSize"`
			} `json:"ticks"`
		} `json:"r"`
	} `json:"scales"`
	Plugins struct {
		Title struct {
			Display bool   `json:"display"`
			Text    string `json:"text"`
		} `json:"title"`
	} `json:"plugins"`
}

type ChartMeta struct {
	ExportDate   time.Time `json:"exportDate"`
	TotalScores  int       `json:"totalScores"`
	OverallScore *float64  `json:"overallScore"`
}

// BuildChartExport wraps the spider chart with its radar configuration.
func BuildChartExport(sum survey.Summary, now time.Time) ChartExport {
	var opts ChartOptions
	opts.Scales.R.BeginAtZero = true
	opts.Scales.R.Max = 4
	opts.Scales.R.Ticks.StepSize = 1
	opts.Plugins.Title.Display = true
	opts.Plugins.Title.Text = "Data Quality Assessment - Spider Chart"

	return ChartExport{
		SpiderChart: SpiderChartData(sum),
		ChartConfig: ChartConfig{Type: "radar", Options: opts},
		Metadata: ChartMeta{
			ExportDate:   now.UTC(),
			TotalScores:  sum.TotalScores,
			OverallScore: sum.Overall,
		},
	}
}
