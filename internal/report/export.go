package report

import (
	"fmt"
	"regexp"
	"time"

	"github.com/geoquality/surveyform/internal/schemas"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/google/uuid"
)

// ExportVersion is the export payload format version.
const ExportVersion = "1.0"

// Export is the full downloadable evaluation.
type Export struct {
	ExportID      string            `json:"exportId"`
	Metadata      ExportMetadata    `json:"metadata"`
	Dataset       Dataset           `json:"dataset"`
	Descriptives  survey.Subsection `json:"descriptives"`
	Design        Design            `json:"design"`
	Conformance   *survey.Section   `json:"conformance"`
	Context       *survey.Section   `json:"context"`
	QualityScores QualityScores     `json:"qualityScores"`
	Timestamps    survey.Timestamps `json:"timestamps"`
}

type ExportMetadata struct {
	ExportDate     time.Time `json:"exportDate"`
	Version        string    `json:"version"`
	EvaluationType string    `json:"evaluationType"`
}

type Dataset struct {
	Basic   survey.Subsection `json:"basic"`
	UseCase survey.Subsection `json:"useCase"`
	Spatial survey.Subsection `json:"spatial"`
	AOI     survey.Subsection `json:"aoi"`
}

type Design struct {
	SpatialResolution survey.Subsection `json:"spatialResolution"`
	SpatialCoverage   survey.Subsection `json:"spatialCoverage"`
	Timeliness        survey.Subsection `json:"timeliness"`
}

// ScoreSummary is the score summary with its chart data attached.
type ScoreSummary struct {
	survey.Summary
	SpiderChartData SpiderChart `json:"spiderChartData"`
}

type QualityScores struct {
	Summary         ScoreSummary                        `json:"summary"`
	SpiderChartData SpiderChart                         `json:"spiderChartData"`
	BySection       map[survey.SectionID]map[string]int `json:"bySection"`
	Overall         *float64                            `json:"overall"`
}

// BuildExport assembles the export payload. id identifies this export.
func BuildExport(snap *survey.Snapshot, sum survey.Summary, now time.Time, id string) Export {
	basic := snap.Subsection(survey.Section1, survey.SubBasic)
	evalType := basic.Text("evaluationType")
	if evalType == "" {
		evalType = "unknown"
	}
	chart := SpiderChartData(sum)

	return Export{
		ExportID: id,
		Metadata: ExportMetadata{
			ExportDate:     now.UTC(),
			Version:        ExportVersion,
			EvaluationType: evalType,
		},
		Dataset: Dataset{
			Basic:   basic,
			UseCase: snap.Subsection(survey.Section1, survey.SubUseCase),
			Spatial: snap.Subsection(survey.Section1, survey.SubSpatial),
			AOI:     snap.Subsection(survey.Section1, survey.SubAOI),
		},
		Descriptives: snap.Subsection(survey.Section2, survey.SubDescriptives),
		Design: Design{
			SpatialResolution: snap.Subsection(survey.Section3, survey.SubSpatialResolution),
			SpatialCoverage:   snap.Subsection(survey.Section3, survey.SubSpatialCoverage),
			Timeliness:        snap.Subsection(survey.Section3, survey.SubTimeliness),
		},
		Conformance: snap.Section(survey.Section4),
		Context:     snap.Section(survey.Section5),
		QualityScores: QualityScores{
			Summary:         ScoreSummary{Summary: sum, SpiderChartData: chart},
			SpiderChartData: chart,
			BySection:       sum.BySection,
			Overall:         sum.Overall,
		},
		Timestamps: snap.Timestamps,
	}
}

// NewExport is BuildExport under a fresh random id.
func NewExport(snap *survey.Snapshot, sum survey.Summary, now time.Time) Export {
	return BuildExport(snap, sum, now, uuid.NewString())
}

// Validate checks the payload against the export schema.
func (e Export) Validate() error {
	if err := schemas.ValidateExport(e); err != nil {
		return fmt.Errorf("export payload invalid: %w", err)
	}
	return nil
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9]`)

func fileStem(title string) string {
	if title == "" {
		title = "DataQuality"
	}
	return unsafeFilename.ReplaceAllString(title, "_")
}

func fileTimestamp(now time.Time) string {
	return now.UTC().Format("2006-01-02T15-04-05")
}

// Filename is the download name for an export of the dataset titled title.
func Filename(title string, now time.Time) string {
	return fileStem(title) + "_evaluation_" + fileTimestamp(now) + ".json"
}

// ChartFilename is the download name for a spider-chart export.
func ChartFilename(title string, now time.Time) string {
	return fileStem(title) + "_spider_chart_" + fileTimestamp(now) + ".json"
}
