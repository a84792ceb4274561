package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/geoquality/surveyform/internal/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var records = []submission.SurveyRecord{
	{
		DatasetTitle: "DEM", MetadataScore: 4, AccessibilityScore: 3, SpatialScore: 2,
		DesignResolutionScore: 3, DesignCoverageScore: 2, DesignTimelinessScore: 4,
		AssessmentDate: "2024-05-02T10:00:00.000Z", Evaluator: "R. Meyer", Institution: "GeoLab",
		Keywords: []string{"elevation"},
	},
	{
		DatasetTitle: "Land cover", MetadataScore: 3, AccessibilityScore: 3, SpatialScore: 4,
		DesignResolutionScore: 1, DesignCoverageScore: 1, DesignTimelinessScore: 2,
		AssessmentDate: "2024-05-01",
	},
	{
		DatasetTitle: "Roads", MetadataScore: 2, AccessibilityScore: 1, SpatialScore: 4,
		DesignResolutionScore: 4, DesignCoverageScore: 4, DesignTimelinessScore: 4,
		AssessmentDate: "2024-05-02",
	},
}

func TestAverageScores(t *testing.T) {
	_, ok := AverageScores(nil)
	assert.False(t, ok)

	avg, ok := AverageScores(records)
	require.True(t, ok)
	assert.InDelta(t, 3.0, avg[Metadata], 1e-9)
	assert.InDelta(t, 7.0/3, avg[Accessibility], 1e-9)
	assert.InDelta(t, 10.0/3, avg[Spatial], 1e-9)
	// design per record: 3, 4/3, 4
	assert.InDelta(t, (3+4.0/3+4)/3, avg[Design], 1e-9)
}

func TestMetrics(t *testing.T) {
	assert.Nil(t, Metrics(nil))

	m := Metrics(records)
	require.Len(t, m, 4)
	assert.Equal(t, []string{"Metadata Quality", "Accessibility", "Spatial Precision", "Design Quality"},
		[]string{m[0].Title, m[1].Title, m[2].Title, m[3].Title})
	assert.Equal(t, "3.0", m[0].Display())
	assert.Equal(t, "2.8", m[3].Display())
	assert.Equal(t, 4, m[3].Max)
}

func TestScoreDistribution(t *testing.T) {
	dist := ScoreDistribution(records)
	require.Len(t, dist, 4)

	assert.Equal(t, "Score 1", dist[0].Name)
	// columns: metadata, accessibility, spatial, design (rounded 3, 1, 4)
	assert.Equal(t, []int{0, 1, 0, 1}, dist[0].Data)
	assert.Equal(t, []int{1, 0, 1, 0}, dist[1].Data)
	assert.Equal(t, []int{1, 2, 0, 1}, dist[2].Data)
	assert.Equal(t, []int{1, 0, 2, 1}, dist[3].Data)

	for _, s := range ScoreDistribution(nil) {
		assert.Equal(t, []int{0, 0, 0, 0}, s.Data)
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 3, roundHalfUp(2.5))
	assert.Equal(t, 2, roundHalfUp(2.49))
	assert.Equal(t, 1, roundHalfUp(4.0/3))
	assert.Equal(t, 2, roundHalfUp(5.0/3))
}

func TestEvaluationsPerDay(t *testing.T) {
	withBad := append([]submission.SurveyRecord{{AssessmentDate: "not a date"}}, records...)
	assert.Equal(t, []DayCount{
		{Date: "2024-05-01", Count: 1},
		{Date: "2024-05-02", Count: 2},
	}, EvaluationsPerDay(withBad))
	assert.Empty(t, EvaluationsPerDay(nil))
}

func TestCards(t *testing.T) {
	cards := Cards(records)
	require.Len(t, cards, 3)

	assert.Equal(t, "DEM", cards[0].Title)
	assert.InDelta(t, (4+3+2+3.0)/4, cards[0].Score, 1e-9)
	assert.Equal(t, "2024-05-02", cards[0].Date)
	assert.Equal(t, []string{"elevation"}, cards[0].Keywords)
	assert.Equal(t, []string{}, cards[1].Keywords)
}

type stubLister struct {
	got     submission.Query
	records []submission.SurveyRecord
	err     error
}

func (s *stubLister) ListSurveys(_ context.Context, q submission.Query) ([]submission.SurveyRecord, error) {
	s.got = q
	return s.records, s.err
}

func TestLoad(t *testing.T) {
	l := &stubLister{records: records}
	d, err := Load(context.Background(), l, submission.Query{Search: "dem"})
	require.NoError(t, err)
	assert.Equal(t, "dem", l.got.Search)
	assert.Equal(t, 3, d.Total)
	assert.Len(t, d.Cards, 3)

	_, err = Load(context.Background(), &stubLister{err: errors.New("offline")}, submission.Query{})
	assert.ErrorContains(t, err, "offline")
}
