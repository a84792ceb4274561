package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/geoquality/surveyform/internal/kvstore"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func newFixtureStore(t *testing.T) (*survey.Store, *survey.Ledger) {
	t.Helper()
	s := survey.NewStore(kvstore.NewMemory(), survey.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, s.Initialize(context.Background()))
	return s, survey.NewLedger(s, survey.DedupByField)
}

// useCaseFixture is a filled-in use-case evaluation with three scores.
func useCaseFixture(t *testing.T) (*survey.Snapshot, survey.Summary) {
	t.Helper()
	ctx := context.Background()
	s, l := newFixtureStore(t)

	save := func(id survey.SectionID, sub string, patch survey.Subsection) {
		require.NoError(t, s.SaveSection(ctx, id, sub, patch))
	}
	save(survey.Section1, survey.SubBasic, survey.Subsection{
		"datasetTitle":        survey.Text("Urban Atlas 2018"),
		"dataType":            survey.Text("census"),
		"dataprocessinglevel": survey.Text("products"),
		"evaluationType":      survey.Text("use-case-adequacy"),
		"evaluatorName":       survey.Text("R. Meyer"),
		"evaluatorOrg":        survey.Text("GeoLab & Partners"),
	})
	save(survey.Section1, survey.SubUseCase, survey.Subsection{
		"useCaseDescription":    survey.Text("Flood exposure mapping"),
		"optimumDataCollection": survey.Text("2024-01-01"),
	})
	save(survey.Section1, survey.SubSpatial, survey.Subsection{"aggregationLevel": survey.Text("region")})
	save(survey.Section1, survey.SubAOI, survey.Subsection{"aoiType": survey.Text("dropdown")})
	save(survey.Section2, survey.SubDescriptives, survey.Subsection{
		"identifier":         survey.Text("UA-2018"),
		"datasetDescription": survey.Text("<em>Land use</em> polygons"),
		survey.KeywordsKey:   survey.List([]string{"land use", "europe"}),
	})
	save(survey.Section3, survey.SubSpatialCoverage, survey.Subsection{
		"aoiCoverage": survey.Text("92"),
		"cloudCover":  survey.Text("3"),
	})

	require.NoError(t, l.RecordScore(ctx, "r1", "3", "design-resolution", survey.Section3))
	require.NoError(t, l.RecordScore(ctx, "r2", "2", "design-resolution", survey.Section3))
	require.NoError(t, l.RecordScore(ctx, "c1", "4", "context", survey.Section5))

	return s.Snapshot(ctx), l.Summarize(ctx, nil)
}

func TestSummaryText_UseCase(t *testing.T) {
	snap, sum := useCaseFixture(t)
	newGolden(t).Assert(t, "summary_use_case", []byte(SummaryText(snap, sum, time.UTC)))
}

func TestSummaryText_Empty(t *testing.T) {
	s, l := newFixtureStore(t)
	ctx := context.Background()
	newGolden(t).Assert(t, "summary_empty", []byte(SummaryText(s.Snapshot(ctx), l.Summarize(ctx, nil), nil)))
}

func TestBuildExport_Golden(t *testing.T) {
	snap, sum := useCaseFixture(t)
	exp := BuildExport(snap, sum, fixedNow.Add(time.Hour), "00000000-0000-4000-8000-000000000001")

	require.NoError(t, exp.Validate())

	data, err := json.MarshalIndent(exp, "", "  ")
	require.NoError(t, err)
	newGolden(t).Assert(t, "export", data)
}

func TestNewExport_DefaultsAndID(t *testing.T) {
	s, l := newFixtureStore(t)
	ctx := context.Background()

	exp := NewExport(s.Snapshot(ctx), l.Summarize(ctx, nil), fixedNow)
	assert.Len(t, exp.ExportID, 36)
	assert.Equal(t, "unknown", exp.Metadata.EvaluationType)
	assert.Equal(t, ExportVersion, exp.Metadata.Version)
	assert.Nil(t, exp.QualityScores.Overall)
	assert.Empty(t, exp.QualityScores.SpiderChartData.Labels)
	assert.NoError(t, exp.Validate())

	other := NewExport(s.Snapshot(ctx), l.Summarize(ctx, nil), fixedNow)
	assert.NotEqual(t, exp.ExportID, other.ExportID)
}

func TestSpiderChartData(t *testing.T) {
	_, sum := useCaseFixture(t)
	chart := SpiderChartData(sum)

	assert.Equal(t, []string{"Context", "Spatial Resolution"}, chart.Labels)
	require.Len(t, chart.Datasets, 1)
	assert.Equal(t, []float64{4, 2.5}, chart.Datasets[0].Data)

	assert.Equal(t, "custom-group", GroupLabel("custom-group"))
	assert.Equal(t, "Usecase Spatial Fit", GroupTitle("usecase-spatial-fit"))
}

func TestBuildChartExport(t *testing.T) {
	_, sum := useCaseFixture(t)
	exp := BuildChartExport(sum, fixedNow)

	assert.Equal(t, "radar", exp.ChartConfig.Type)
	assert.Equal(t, 4, exp.ChartConfig.Options.Scales.R.Max)
	assert.Equal(t, 3, exp.Metadata.TotalScores)
	require.NotNil(t, exp.Metadata.OverallScore)
	assert.InDelta(t, 3.0, *exp.Metadata.OverallScore, 1e-9)
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 5, 1, 14, 3, 9, 0, time.UTC)
	assert.Equal(t, "Urban_Atlas_2018_evaluation_2024-05-01T14-03-09.json", Filename("Urban Atlas 2018", now))
	assert.Equal(t, "DataQuality_evaluation_2024-05-01T14-03-09.json", Filename("", now))
	assert.Equal(t, "S_o_Paulo_DEM_spider_chart_2024-05-01T14-03-09.json", ChartFilename("São/Paulo DEM", now))
}
