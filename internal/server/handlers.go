package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/report"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/go-chi/chi/v5"
)

func sectionParam(r *http.Request) (survey.SectionID, error) {
	raw := chi.URLParam(r, "section")
	id := survey.SectionID(raw)
	if !id.IsKnown() {
		return "", &ErrUnknownSection{Section: raw}
	}
	return id, nil
}

// handleGetState returns the whole persisted snapshot
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.store.Snapshot(r.Context()))
}

// handleGetSection returns one section
func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	id, err := sectionParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.store.Section(r.Context(), id))
}

// handleGetSubsection returns one subsection; an absent one reads as {}
func (s *Server) handleGetSubsection(w http.ResponseWriter, r *http.Request) {
	id, err := sectionParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.store.Subsection(r.Context(), id, chi.URLParam(r, "subsection")))
}

// handlePatchSubsection shallow-merges the body into a subsection
func (s *Server) handlePatchSubsection(w http.ResponseWriter, r *http.Request) {
	id, err := sectionParam(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	name := chi.URLParam(r, "subsection")

	var patch survey.Subsection
	if err := jsonBody(r.Body, &patch); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.store.SaveSection(r.Context(), id, name, patch); err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.store.Subsection(r.Context(), id, name))
}

// handleRecordScore records or retracts one score and returns the new summary
func (s *Server) handleRecordScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	section := survey.SectionID(req.Section)
	if !section.IsKnown() {
		s.fail(w, &ErrUnknownSection{Section: req.Section})
		return
	}
	if err := s.ledger.RecordScore(r.Context(), req.FieldID, req.Value, req.ScoreGroup, section); err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.ledger.Summarize(r.Context(), nil))
}

// handleSummary returns the score summary over persisted scores
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.ledger.Summarize(r.Context(), nil))
}

// handleSummaryText returns the plain-text evaluation report
func (s *Server) handleSummaryText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	text := report.SummaryText(s.store.Snapshot(ctx), s.ledger.Summarize(ctx, nil), time.UTC)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, text); err != nil {
		s.logger.Error("failed to write summary", "error", err)
	}
}

// handleDerived returns the values derived from persisted state alone
func (s *Server) handleDerived(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.engine.Compute(r.Context(), nil))
}

// handleAccuracyType persists the accuracy assessment choice
func (s *Server) handleAccuracyType(w http.ResponseWriter, r *http.Request) {
	var req AccuracyRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if _, ok := derive.AccuracyPanel(req.AccuracyType); !ok {
		s.fail(w, &ErrValidation{Field: "accuracyType", Message: fmt.Sprintf("unknown accuracy type %q", req.AccuracyType)})
		return
	}
	panel, err := derive.SelectAccuracyType(r.Context(), s.store, req.AccuracyType)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, AccuracyResponse{AccuracyType: req.AccuracyType, Panel: panel})
}

// handleExport returns the validated export payload as a download
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.writeExport(w, r, nil)
}

// writeExport builds the export, merging score fields from page when non-nil.
func (s *Server) writeExport(w http.ResponseWriter, r *http.Request, page survey.FieldSet) {
	ctx := r.Context()
	snap := s.store.Snapshot(ctx)
	now := s.store.Now()

	exp := report.NewExport(snap, s.ledger.Summarize(ctx, page), now)
	if err := exp.Validate(); err != nil {
		s.fail(w, err)
		return
	}
	title := snap.Subsection(survey.Section1, survey.SubBasic).Text("datasetTitle")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(title, now)))
	s.jsonResponse(w, http.StatusOK, exp)
}

// handleChart returns the spider-chart download
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := s.store.Snapshot(ctx)
	now := s.store.Now()

	title := snap.Subsection(survey.Section1, survey.SubBasic).Text("datasetTitle")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.ChartFilename(title, now)))
	s.jsonResponse(w, http.StatusOK, report.BuildChartExport(s.ledger.Summarize(ctx, nil), now))
}
