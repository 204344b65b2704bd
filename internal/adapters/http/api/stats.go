package api

import (
	"net/http"
	"time"
)

// StatsProvider reports calculator counters for /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves a snapshot of the provider's counters together with
// the request limits the API enforces.
type StatsHandler struct {
	provider     StatsProvider
	maxBodyBytes int64
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider, maxBodyBytes int64) *StatsHandler {
	return &StatsHandler{provider: provider, maxBodyBytes: maxBodyBytes}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snapshot := make(map[string]interface{})
	if h.provider != nil {
		for k, v := range h.provider.GetStats() {
			snapshot[k] = v
		}
	}
	snapshot["maxBodyBytes"] = h.maxBodyBytes
	snapshot["time"] = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, snapshot)
}
