package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds every API call.
const DefaultTimeout = 30 * time.Second

const (
	genericServerMessage = "Server returned an error"
	draftFailedMessage   = "Failed to save draft"
)

// ServerError is a failed call to the survey API.
type ServerError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("survey api error for %s: %s: %v", e.Endpoint, e.Message, e.Cause)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("survey api error for %s (%d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("survey api error for %s: %s", e.Endpoint, e.Message)
}

func (e *ServerError) Unwrap() error {
	return e.Cause
}

// SurveyRecord is a stored evaluation as returned by GET /api/surveys.
type SurveyRecord struct {
	DatasetTitle          string   `json:"dataset_title"`
	DatasetDescription    string   `json:"dataset_description"`
	MetadataScore         float64  `json:"metadata_score"`
	AccessibilityScore    float64  `json:"accessibility_score"`
	SpatialScore          float64  `json:"spatial_score"`
	DesignResolutionScore float64  `json:"design_resolution_score"`
	DesignCoverageScore   float64  `json:"design_coverage_score"`
	DesignTimelinessScore float64  `json:"design_timeliness_score"`
	AssessmentDate        string   `json:"assessment_date"`
	Evaluator             string   `json:"evaluator"`
	Institution           string   `json:"institution"`
	Keywords              []string `json:"keywords,omitempty"`
}

// Query filters the survey listing. Zero values are not sent.
type Query struct {
	Search   string
	MinScore int
	MaxScore int
	Sort     string
}

// Values encodes the query string.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.MinScore > 0 {
		v.Set("minScore", strconv.Itoa(q.MinScore))
	}
	if q.MaxScore > 0 {
		v.Set("maxScore", strconv.Itoa(q.MaxScore))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	return v
}

// Client calls the survey API at a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts a final evaluation.
func (c *Client) Submit(ctx context.Context, sub *FinalSubmission) error {
	resp, err := c.postJSON(ctx, "/api/survey", sub)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &ServerError{Endpoint: "/api/survey", StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
}

// SaveDraft posts the partially filled form. Fields are sent as entered.
func (c *Client) SaveDraft(ctx context.Context, fields map[string]string) error {
	body := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["submitOption"] = OptionDraft

	resp, err := c.postJSON(ctx, "/api/survey/draft", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &ServerError{Endpoint: "/api/survey/draft", StatusCode: resp.StatusCode, Message: draftFailedMessage}
}

// ListSurveys fetches stored evaluations matching q.
func (c *Client) ListSurveys(ctx context.Context, q Query) ([]SurveyRecord, error) {
	endpoint := "/api/surveys"
	u := c.baseURL + endpoint
	if enc := q.Values().Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &ServerError{Endpoint: endpoint, Message: "failed to create request", Cause: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServerError{Endpoint: endpoint, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServerError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: serverMessage(resp.Body)}
	}

	var records []SurveyRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, &ServerError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "invalid response body", Cause: err}
	}
	return records, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request for %s: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, &ServerError{Endpoint: endpoint, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServerError{Endpoint: endpoint, Message: "request failed", Cause: err}
	}
	return resp, nil
}

// serverMessage reads {"message": ...} from an error body.
func serverMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&body); err != nil || body.Message == "" {
		return genericServerMessage
	}
	return body.Message
}
