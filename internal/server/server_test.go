package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/kvstore"
	"github.com/geoquality/surveyform/internal/observability"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 14, 3, 9, 0, time.UTC)

func newTestServer(t *testing.T, rateLimit bool) (*Server, *survey.Store) {
	t.Helper()
	return newTestServerWithConfig(t, Config{RateLimit: rateLimit})
}

func newTestServerWithConfig(t *testing.T, cfg Config) (*Server, *survey.Store) {
	t.Helper()
	store := survey.NewStore(kvstore.NewMemory(), survey.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, store.Initialize(context.Background()))
	return New(store, cfg, observability.Discard()), store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func fieldValue(t *testing.T, fields []FieldState, id string) string {
	t.Helper()
	for _, f := range fields {
		if f.ID == id {
			return f.Value
		}
	}
	t.Fatalf("field %s not in response", id)
	return ""
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := do(t, s.Handler(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody[map[string]string](t, w)["status"])
}

func TestGetState(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := do(t, s.Handler(), http.MethodGet, "/api/state/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	for _, key := range []string{"section1", "section5", "scores", "timestamps"} {
		assert.Contains(t, body, key)
	}
}

func TestSections(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown section", http.MethodGet, "/api/state/sections/section9", nil, http.StatusNotFound},
		{"known section", http.MethodGet, "/api/state/sections/section2", nil, http.StatusOK},
		{"absent subsection", http.MethodGet, "/api/state/sections/section1/nope", nil, http.StatusOK},
		{"patch unknown section", http.MethodPatch, "/api/state/sections/section9/basic", map[string]string{"a": "b"}, http.StatusNotFound},
		{"patch object value", http.MethodPatch, "/api/state/sections/section1/basic", map[string]any{"a": map[string]string{}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestGetSubsection_AbsentReadsEmpty(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/api/state/sections/section1/general", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/state/sections/section9/general", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatchSubsection_Merges(t *testing.T) {
	s, store := newTestServer(t, false)
	h := s.Handler()

	w := do(t, h, http.MethodPatch, "/api/state/sections/section1/basic", map[string]any{"datasetTitle": "Urban Atlas"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, h, http.MethodPatch, "/api/state/sections/section1/basic", map[string]any{"dataType": "gis"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/state/sections/section1/basic", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody[map[string]any](t, w)
	assert.Equal(t, "Urban Atlas", got["datasetTitle"])
	assert.Equal(t, "gis", got["dataType"])

	assert.Equal(t, "gis", store.Legacy(context.Background())["dataType"])
}

func TestRecordScore(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/state/scores", ScoreRequest{FieldID: "q1", Value: "4", ScoreGroup: "metadata", Section: "section2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, h, http.MethodPost, "/api/state/scores", ScoreRequest{FieldID: "q2", Value: "2", ScoreGroup: "metadata", Section: "section2"})
	require.Equal(t, http.StatusOK, w.Code)

	sum := decodeBody[survey.Summary](t, w)
	assert.Equal(t, 2, sum.TotalScores)
	require.NotNil(t, sum.Overall)
	assert.InDelta(t, 3.0, *sum.Overall, 1e-9)

	// blank retracts
	w = do(t, h, http.MethodPost, "/api/state/scores", ScoreRequest{FieldID: "q2", Value: "", ScoreGroup: "metadata", Section: "section2"})
	sum = decodeBody[survey.Summary](t, w)
	assert.Equal(t, 1, sum.TotalScores)

	w = do(t, h, http.MethodGet, "/api/state/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeBody[survey.Summary](t, w).TotalScores)
}

func TestRecordScore_Invalid(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/state/scores", ScoreRequest{Value: "3", ScoreGroup: "g", Section: "section2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody[map[string]string](t, w)["error"], "FieldID")

	w = do(t, h, http.MethodPost, "/api/state/scores", ScoreRequest{FieldID: "q", Value: "3", ScoreGroup: "g", Section: "section7"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/state/scores", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFieldMutated_ReturnsDerivedValues(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	do(t, h, http.MethodPatch, "/api/state/sections/section1/basic", map[string]any{
		"dataType":       derive.DataTypeRemote,
		"evaluationType": derive.EvaluationUseCase,
	})
	do(t, h, http.MethodPatch, "/api/state/sections/section1/spatial", map[string]any{"pixelSize": "10"})

	w := do(t, h, http.MethodPost, "/api/pages/section3.html/fields", MutationRequest{
		PageRequest: PageRequest{Fields: []FieldState{
			{ID: "pixelResolutionValue", Value: "15"},
			{ID: derive.FieldOptimalResolution},
			{ID: derive.FieldSpatialDeviation},
		}},
		Changed: "pixelResolutionValue",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeBody[PageResponse](t, w)
	assert.Equal(t, survey.PageSection3, resp.Page)
	assert.Equal(t, "10 m", fieldValue(t, resp.Fields, derive.FieldOptimalResolution))
	assert.Equal(t, "5.00 m", fieldValue(t, resp.Fields, derive.FieldSpatialDeviation))
	require.NotNil(t, resp.Derived)
	assert.Equal(t, "10 m", resp.Derived.OptimalResolution)

	w = do(t, h, http.MethodGet, "/api/state/sections/section3/spatialResolution", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "15", decodeBody[map[string]any](t, w)["pixelResolutionValue"])
}

func TestFieldMutated_RecordsScore(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/pages/section2/fields", MutationRequest{
		PageRequest: PageRequest{Fields: []FieldState{
			{ID: "metadataScore", Kind: KindRadio, Value: "5", Checked: true, ScoreGroup: "metadata"},
		}},
		Changed: "metadataScore",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/state/summary", nil)
	sum := decodeBody[survey.Summary](t, w)
	assert.Equal(t, 1, sum.TotalScores)
	assert.Equal(t, 5, sum.BySection[survey.Section2]["metadataScore"])
}

func TestFieldMutated_Invalid(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/pages/section1/fields", MutationRequest{
		PageRequest: PageRequest{Fields: []FieldState{{ID: "datasetTitle"}}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/pages/section1/fields", MutationRequest{
		PageRequest: PageRequest{Fields: []FieldState{{ID: "datasetTitle"}}},
		Changed:     "other",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/pages/section1/fields", MutationRequest{
		PageRequest: PageRequest{Fields: []FieldState{{ID: "x", Kind: "slider"}}},
		Changed:     "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRestoreAndUnload(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/pages/section5.html/unload", PageRequest{Fields: []FieldState{
		{ID: "notes", Value: "fit for purpose"},
		{ID: "reviewed", Kind: KindCheckbox, Checked: true},
		{ID: "empty"},
	}})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = do(t, h, http.MethodGet, "/api/state/sections/section5/general", nil)
	require.Equal(t, http.StatusOK, w.Code)
	general := decodeBody[map[string]any](t, w)
	assert.Equal(t, "fit for purpose", general["notes"])
	assert.Equal(t, true, general["reviewed"])
	assert.NotContains(t, general, "empty")

	w = do(t, h, http.MethodPost, "/api/pages/section5.html/restore", PageRequest{Fields: []FieldState{
		{ID: "notes"},
		{ID: "reviewed", Kind: KindCheckbox},
		{ID: "unrelated"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[PageResponse](t, w)
	require.NotNil(t, resp.Restored)
	assert.Equal(t, 2, *resp.Restored)
	assert.Equal(t, "fit for purpose", fieldValue(t, resp.Fields, "notes"))
	for _, f := range resp.Fields {
		if f.ID == "reviewed" {
			assert.True(t, f.Checked)
		}
	}
}

func TestRestore_UnknownPageRestoresNothing(t *testing.T) {
	s, _ := newTestServer(t, false)
	w := do(t, s.Handler(), http.MethodPost, "/api/pages/index.html/restore", PageRequest{Fields: []FieldState{{ID: "datasetTitle"}}})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[PageResponse](t, w)
	require.NotNil(t, resp.Restored)
	assert.Zero(t, *resp.Restored)
}

func TestNavigation(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/api/pages/section3.html/navigation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	nav := decodeBody[NavigationResponse](t, w)
	assert.Equal(t, survey.PageSection4, nav.Next)
	assert.Equal(t, survey.PageSection2, nav.Previous)

	do(t, h, http.MethodPatch, "/api/state/sections/section1/basic", map[string]any{"dataprocessinglevel": derive.ProcessingPrimary})

	w = do(t, h, http.MethodGet, "/api/pages/section3/navigation", nil)
	nav = decodeBody[NavigationResponse](t, w)
	assert.True(t, nav.Available)
	assert.Equal(t, survey.PageSection5, nav.Next)

	w = do(t, h, http.MethodGet, "/api/pages/section4.html/navigation", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodGet, "/api/pages/about.html/navigation", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/pages/section1.html/navigation", nil)
	nav = decodeBody[NavigationResponse](t, w)
	assert.Empty(t, nav.Previous)
	assert.Equal(t, survey.PageSection2, nav.Next)
}

func TestAccuracyType(t *testing.T) {
	s, store := newTestServer(t, false)
	h := s.Handler()

	w := do(t, h, http.MethodPut, "/api/state/accuracy-type", AccuracyRequest{AccuracyType: derive.AccuracyModel})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody[AccuracyResponse](t, w)
	assert.Equal(t, "model-performance", resp.Panel)
	assert.Equal(t, derive.AccuracyModel, store.Subsection(context.Background(), survey.Section4, survey.SubConformance).Text("accuracyType"))

	w = do(t, h, http.MethodPut, "/api/state/accuracy-type", AccuracyRequest{AccuracyType: "vibes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDerived(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	do(t, h, http.MethodPatch, "/api/state/sections/section3/spatialCoverage", map[string]any{"aoiCoverage": "75"})
	w := do(t, h, http.MethodGet, "/api/state/derived", nil)
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeBody[derive.Values](t, w)
	assert.Equal(t, "25.0 %", v.CoverageDeviation)
	assert.True(t, v.ConformanceApplies)
}

func TestExportAndChart(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	do(t, h, http.MethodPatch, "/api/state/sections/section1/basic", map[string]any{"datasetTitle": "Urban Atlas 2018"})
	do(t, h, http.MethodPost, "/api/state/scores", ScoreRequest{FieldID: "q1", Value: "4", ScoreGroup: "metadata", Section: "section2"})

	w := do(t, h, http.MethodGet, "/api/state/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="Urban_Atlas_2018_evaluation_2024-05-01T14-03-09.json"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	w = do(t, h, http.MethodGet, "/api/state/chart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Urban_Atlas_2018_spider_chart_")
}

func TestPageSummary_MergesUnsavedScores(t *testing.T) {
	page := PageRequest{Fields: []FieldState{
		{ID: "q1", Value: "2", ScoreGroup: "design-resolution"},
		{ID: "q2", Value: "2", ScoreGroup: "design-resolution"},
		{ID: "pixelResolutionValue", Value: "15"},
	}}

	tests := []struct {
		name        string
		dedup       survey.DedupStrategy
		wantScores  []int
		wantOverall float64
	}{
		{"by field", survey.DedupByField, []int{2, 2}, 2.0},
		{"by value", survey.DedupByValue, []int{3, 2}, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServerWithConfig(t, Config{Dedup: tt.dedup})
			h := s.Handler()

			w := do(t, h, http.MethodPost, "/api/state/scores", ScoreRequest{FieldID: "q1", Value: "3", ScoreGroup: "design-resolution", Section: "section3"})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			w = do(t, h, http.MethodPost, "/api/pages/section3.html/summary", page)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			sum := decodeBody[survey.Summary](t, w)
			assert.ElementsMatch(t, tt.wantScores, sum.ByGroup["design-resolution"].Scores)
			assert.Equal(t, 2, sum.TotalScores)
			require.NotNil(t, sum.Overall)
			assert.InDelta(t, tt.wantOverall, *sum.Overall, 1e-9)

			// the page's scores are not persisted by summarizing
			w = do(t, h, http.MethodGet, "/api/state/summary", nil)
			stored := decodeBody[survey.Summary](t, w)
			assert.Equal(t, 1, stored.TotalScores)
		})
	}
}

func TestPageExport_IncludesUnsavedScores(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	do(t, h, http.MethodPatch, "/api/state/sections/section1/basic", map[string]any{"datasetTitle": "Urban Atlas 2018"})
	do(t, h, http.MethodPost, "/api/state/scores", ScoreRequest{FieldID: "q1", Value: "4", ScoreGroup: "metadata", Section: "section2"})

	w := do(t, h, http.MethodPost, "/api/pages/section3.html/export", PageRequest{Fields: []FieldState{
		{ID: "generalResolutionScore", Value: "2", ScoreGroup: "design-resolution"},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="Urban_Atlas_2018_evaluation_2024-05-01T14-03-09.json"`, w.Header().Get("Content-Disposition"))

	var exp struct {
		QualityScores struct {
			Overall *float64 `json:"overall"`
			Summary struct {
				TotalScores int `json:"totalScores"`
			} `json:"summary"`
		} `json:"qualityScores"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exp))
	assert.Equal(t, 2, exp.QualityScores.Summary.TotalScores)
	require.NotNil(t, exp.QualityScores.Overall)
	assert.InDelta(t, 3.0, *exp.QualityScores.Overall, 1e-9)

	w = do(t, h, http.MethodPost, "/api/pages/section3.html/export", PageRequest{Fields: []FieldState{{ID: ""}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummaryText(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()

	do(t, h, http.MethodPatch, "/api/state/sections/section1/basic", map[string]any{"datasetTitle": "Urban Atlas 2018"})
	w := do(t, h, http.MethodGet, "/api/state/summary.txt", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Urban Atlas 2018")
}

func TestCORSPreflight(t *testing.T) {
	store := survey.NewStore(kvstore.NewMemory())
	s := New(store, Config{AllowedOrigin: "https://survey.example.org"}, observability.Discard())

	req := httptest.NewRequest(http.MethodOptions, "/api/state/scores", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://survey.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, true)
	h := s.Handler()

	var limited *httptest.ResponseRecorder
	for i := 0; i < 20 && limited == nil; i++ {
		w := do(t, h, http.MethodPut, "/api/state/accuracy-type", AccuracyRequest{AccuracyType: derive.AccuracyThematic})
		if w.Code == http.StatusTooManyRequests {
			limited = w
			continue
		}
		assert.Equal(t, "120", w.Header().Get("X-RateLimit-Limit"))
	}
	require.NotNil(t, limited, "expected the burst to be exhausted")
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	// reads are not limited
	w := do(t, h, http.MethodGet, "/api/state/summary", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t, false)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
