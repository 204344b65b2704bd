package api

import "net/http"

// CatalogHandler serves read-only reference data.
type CatalogHandler struct {
	deps Dependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps Dependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleSubjects handles GET /api/v1/subjects requests.
func (h *CatalogHandler) HandleSubjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subjects": h.deps.Subjects()})
}

// HandleReferenceTables handles GET /api/v1/reference-tables requests.
func (h *CatalogHandler) HandleReferenceTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": h.deps.ReferenceTables()})
}
