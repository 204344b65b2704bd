package api

import (
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/endolimit/internal/app"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// reportRequest is a scenario, optional readings and a sample name.
type reportRequest struct {
	service.ScenarioInput
	Sample   string                 `json:"sample"`
	Readings []service.ReadingInput `json:"readings"`
}

// ReportHandler serves XLSX report downloads.
type ReportHandler struct {
	deps  Dependencies
	codec *codec
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps Dependencies, c *codec) *ReportHandler {
	return &ReportHandler{deps: deps, codec: c}
}

// HandleReport handles POST /api/v1/report requests.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.report"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req reportRequest
	if !h.codec.decode(w, r, op, &req) {
		return
	}
	rep, err := h.deps.Report(r.Context(), req.Sample, req.ScenarioInput, req.Readings)
	if err != nil {
		h.codec.fail(r.Context(), w, op, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(rep.Data)))
	w.Header().Set("X-Report-ID", rep.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rep.Data)
}
