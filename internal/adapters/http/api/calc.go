package api

import (
	"net/http"

	service "github.com/okian/endolimit/internal/app"
)

// evaluateRequest is a scenario plus one reading.
type evaluateRequest struct {
	service.ScenarioInput
	Reading service.ReadingInput `json:"reading"`
}

// readingsRequest is a scenario plus up to ten readings.
type readingsRequest struct {
	service.ScenarioInput
	Readings []service.ReadingInput `json:"readings"`
}

// maxSafeDoseRequest is a scenario plus an observed endotoxin level.
type maxSafeDoseRequest struct {
	service.ScenarioInput
	Observed float64 `json:"observed"`
}

// CalcHandler serves the limit engine endpoints.
type CalcHandler struct {
	deps  Dependencies
	codec *codec
}

// NewCalcHandler creates a new calculation handler.
func NewCalcHandler(deps Dependencies, c *codec) *CalcHandler {
	return &CalcHandler{deps: deps, codec: c}
}

// HandleLimit handles POST /api/v1/limit requests.
func (h *CalcHandler) HandleLimit(w http.ResponseWriter, r *http.Request) {
	const op = "api.limit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req service.ScenarioInput
	if !h.codec.decode(w, r, op, &req) {
		return
	}
	res, err := h.deps.ComputeLimit(r.Context(), req)
	if err != nil {
		h.codec.fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleEvaluate handles POST /api/v1/evaluate requests. A unit mismatch
// is a 200 response carrying the limit and a unit_mismatch object.
func (h *CalcHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req evaluateRequest
	if !h.codec.decode(w, r, op, &req) {
		return
	}
	res, err := h.deps.Evaluate(r.Context(), req.ScenarioInput, req.Reading)
	if err != nil {
		h.codec.fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleReadings handles POST /api/v1/readings/evaluate requests.
func (h *CalcHandler) HandleReadings(w http.ResponseWriter, r *http.Request) {
	const op = "api.readings"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req readingsRequest
	if !h.codec.decode(w, r, op, &req) {
		return
	}
	res, err := h.deps.EvaluateReadings(r.Context(), req.ScenarioInput, req.Readings)
	if err != nil {
		h.codec.fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleMaxSafeDose handles POST /api/v1/max-safe-dose requests.
func (h *CalcHandler) HandleMaxSafeDose(w http.ResponseWriter, r *http.Request) {
	const op = "api.max_safe_dose"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req maxSafeDoseRequest
	if !h.codec.decode(w, r, op, &req) {
		return
	}
	res, err := h.deps.MaxSafeDose(r.Context(), req.ScenarioInput, req.Observed)
	if err != nil {
		h.codec.fail(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
