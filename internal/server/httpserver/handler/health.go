package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status       string `json:"status"`
	Time         string `json:"time"`
	ActiveTokens int    `json:"active_tokens"`
}

// Health handles GET /health. It answers 200 even in maintenance so
// liveness probes keep passing.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.store.Maintenance() {
		status = "maintenance"
	}
	resp, err := scriptapi.NewResponse(r.Header.Get(scriptapi.HeaderRequestID), HealthStatus{
		Status:       status,
		Time:         time.Now().UTC().Format(time.RFC3339),
		ActiveTokens: h.tokens.Count(),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	WriteEnvelope(w, http.StatusOK, resp)
}
