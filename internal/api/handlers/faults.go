package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/api/response"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/worker"
)

// FaultHandler toggles injected failures. Only mounted in debug mode.
type FaultHandler struct {
	faults *worker.Faults
}

// NewFaultHandler creates a new FaultHandler.
func NewFaultHandler(faults *worker.Faults) *FaultHandler {
	return &FaultHandler{faults: faults}
}

// SetFault enables or disables the fault named in the URL.
func (h *FaultHandler) SetFault(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "point")
	point, ok := worker.ParseFaultPoint(name)
	if !ok {
		response.NotFound(w, fmt.Errorf("unknown fault point %q", name))
		return
	}

	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, fmt.Errorf("invalid request body: %w", err))
		return
	}

	h.faults.Set(point, body.Enabled)
	response.Success(w, map[string]any{"point": point.String(), "enabled": body.Enabled})
}
