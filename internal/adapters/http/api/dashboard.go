package api

import (
	"net/http"
)

const dashboardPage = "dashboard.html"

// DashboardHandler serves the embedded metrics dashboard.
type DashboardHandler struct{}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// HandleDashboard handles GET and HEAD /dashboard requests. The page polls
// /stats and /healthz and charts the calculator counters.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, dashboardFS, dashboardPage)
}
