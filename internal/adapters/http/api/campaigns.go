package api

import (
	"net/http"
	"time"
)

// CampaignHandler exposes read-only sequencing queries.
type CampaignHandler struct {
	deps Dependencies
	now  func() time.Time
}

// NewCampaignHandler creates a campaign handler evaluating decisions at now().
func NewCampaignHandler(deps Dependencies, now func() time.Time) *CampaignHandler {
	return &CampaignHandler{deps: deps, now: now}
}

// HandleNext handles GET /campaigns/{id}/talents/{talentId}/next and reports
// what the scheduler would do for the pair right now, without sending.
func (h *CampaignHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	d, err := h.deps.Evaluate(r.Context(), r.PathValue("id"), r.PathValue("talentId"), h.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDecisionView(d))
}
