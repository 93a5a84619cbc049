package web

import (
	"net/http"

	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/logging"
	"github.com/JonMunkholm/csvview/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handleData returns one page of the table stored under {id}.
//
// Query parameters: page, pageSize, sortBy, sortDirection, search, searchColumn.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := s.parseQuery(r)

	res, err := s.service.Query(r.Context(), id, q)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// handleExport streams every row matching the query, sorted, as CSV in the
// table's own delimiter. Pagination parameters are ignored.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := s.parseQuery(r)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.csv"`)

	if err := s.service.Export(r.Context(), id, q, w); err != nil {
		// Export fails before writing when the id is unknown.
		w.Header().Del("Content-Disposition")
		s.respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Debug("export complete", "id", id)
}

// handleView renders the table as HTML. HTMX requests get the table partial only.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := s.parseQuery(r)

	res, err := s.service.Query(r.Context(), id, q)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	table := templates.DataTable(id, res, q)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	component := templates.Page("csvview - "+id, table)
	if isHTMX(r) {
		component = table
	}
	if err := component.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render view", "id", id, "error", err)
	}
}

// parseQuery decodes the query string, applying the configured default page size.
func (s *Server) parseQuery(r *http.Request) core.Query {
	values := r.URL.Query()
	q := core.QueryFromValues(values)
	if values.Get("pageSize") == "" && s.cfg.Query.DefaultPageSize > 0 {
		q.PageSize = s.cfg.Query.DefaultPageSize
	}
	return q
}
