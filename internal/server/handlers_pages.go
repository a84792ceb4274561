package server

import (
	"net/http"

	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/go-chi/chi/v5"
)

// pageParam accepts "section3.html", "section3" or a path ending in either.
func pageParam(r *http.Request) survey.PageID {
	return survey.PageFromPath(chi.URLParam(r, "page"))
}

func (s *Server) synchronizer(page survey.PageID, fields survey.FieldSet) *survey.Synchronizer {
	return survey.NewSynchronizer(s.store, s.ledger, page, fields, survey.WithAfterMutation(s.engine.Refresh))
}

func (s *Server) pageResponse(page survey.PageID, fields survey.FieldSet) PageResponse {
	resp := PageResponse{Page: page, Fields: []FieldState{}}
	for _, f := range fields.Fields() {
		resp.Fields = append(resp.Fields, fieldState(f))
	}
	return resp
}

// handleFieldMutated persists one edited control. The response carries the
// page with derived outputs filled in.
func (s *Server) handleFieldMutated(w http.ResponseWriter, r *http.Request) {
	var req MutationRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	page := pageParam(r)
	fields := req.page()
	if _, ok := fields.Field(req.Changed); !ok {
		s.fail(w, &ErrValidation{Field: "changed", Message: "not among the page fields"})
		return
	}

	ctx := r.Context()
	if err := s.synchronizer(page, fields).OnFieldMutated(ctx, req.Changed); err != nil {
		s.fail(w, err)
		return
	}

	resp := s.pageResponse(page, fields)
	derived := s.engine.Compute(ctx, fields)
	resp.Derived = &derived
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleRestore fills the reported controls from saved state.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	page := pageParam(r)
	fields := req.page()

	restored := s.synchronizer(page, fields).RestoreIntoPage(r.Context())
	resp := s.pageResponse(page, fields)
	resp.Restored = &restored
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleUnload captures the page into its general subsection.
func (s *Server) handleUnload(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	page := pageParam(r)
	if err := s.synchronizer(page, req.page()).BeforeUnload(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePageSummary summarizes persisted scores together with the score
// fields currently on the page, saved or not.
func (s *Server) handlePageSummary(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.ledger.Summarize(r.Context(), req.page()))
}

// handlePageExport is the export download with the page's score fields merged in.
func (s *Server) handlePageExport(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	s.writeExport(w, r, req.page())
}

// handleNavigation reports whether the page applies and where its buttons lead.
func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)
	if _, ok := page.Section(); !ok {
		s.fail(w, &ErrUnknownPage{Page: string(page)})
		return
	}

	ctx := r.Context()
	in := derive.ResolveInputs(s.store.State(ctx))
	if !derive.SectionAvailable(in, page) {
		s.fail(w, &ErrNotApplicable{Page: string(page)})
		return
	}

	resp := NavigationResponse{Page: page, Available: true}
	resp.Next, _ = derive.NextPage(in, page)
	resp.Previous, _ = derive.PreviousPage(in, page)
	s.jsonResponse(w, http.StatusOK, resp)
}
