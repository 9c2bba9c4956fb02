package api

import (
	"net/http"

	"github.com/okian/talentflow/internal/domain/model"
)

// TalentHandler serves funnel stage moves, consent changes and subject
// access reports.
type TalentHandler struct {
	deps Dependencies
}

// NewTalentHandler creates a new talent handler.
func NewTalentHandler(deps Dependencies) *TalentHandler {
	return &TalentHandler{deps: deps}
}

// HandleMoveStage handles POST /talents/{id}/stage.
func (h *TalentHandler) HandleMoveStage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	t, err := h.deps.MoveStage(r.Context(), r.PathValue("id"), req.Stage)
	h.respond(w, t, err)
}

// HandleGrant handles POST /consent/{id}/grant.
func (h *TalentHandler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	var req consentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	t, err := h.deps.GrantConsent(r.Context(), r.PathValue("id"), req.Basis, req.Details)
	h.respond(w, t, err)
}

// HandleRevoke handles POST /consent/{id}/revoke.
func (h *TalentHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	var req consentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	t, err := h.deps.RevokeConsent(r.Context(), r.PathValue("id"), req.Details)
	h.respond(w, t, err)
}

// HandleSubjectAccess handles GET /consent/{id}/dsar.
func (h *TalentHandler) HandleSubjectAccess(w http.ResponseWriter, r *http.Request) {
	rep, err := h.deps.SubjectAccess(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSubjectAccessView(rep))
}

func (h *TalentHandler) respond(w http.ResponseWriter, t model.Talent, err error) {
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newTalentView(t))
}
