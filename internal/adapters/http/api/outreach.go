package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/outreach"
)

// OutreachHandler serves message generation, sends and the event ledger.
type OutreachHandler struct {
	deps Dependencies
}

// NewOutreachHandler creates a new outreach handler.
func NewOutreachHandler(deps Dependencies) *OutreachHandler {
	return &OutreachHandler{deps: deps}
}

// HandleGenerate handles POST /outreach/generate.
func (h *OutreachHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ch, tone, err := parseDelivery(req.Channel, req.Tone)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if req.TalentID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Errorf("%w: talentId is required", ErrBadRequest))
		return
	}
	gen, err := h.deps.Generate(r.Context(), outreach.GenerateRequest{
		TalentID:         req.TalentID,
		TemplateID:       req.TemplateID,
		Channel:          ch,
		Tone:             tone,
		IncludeContent:   req.IncludeContentSuggestions,
		IncludeChallenge: req.IncludeChallenge,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newGeneratedView(gen))
}

// HandleSend handles POST /outreach/send.
func (h *OutreachHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ch, tone, err := parseDelivery(req.Channel, req.Tone)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ev, err := h.deps.Send(r.Context(), outreach.SendRequest{
		TalentID:             req.TalentID,
		CampaignID:           req.CampaignID,
		TemplateID:           req.TemplateID,
		Channel:              ch,
		Tone:                 tone,
		Subject:              req.Subject,
		Body:                 req.Body,
		PersonalizedElements: req.PersonalizedElements,
	})
	if err != nil {
		// A failed delivery is still recorded; surface the event with the error.
		if ev.ID != "" && ev.Status == model.StatusFailed {
			writeJSON(w, http.StatusBadGateway, newEventView(ev))
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newEventView(ev))
}

// HandleBulkSend handles POST /outreach/bulk-send.
func (h *OutreachHandler) HandleBulkSend(w http.ResponseWriter, r *http.Request) {
	var req bulkSendRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ch, tone, err := parseDelivery(req.Channel, req.Tone)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.deps.BulkSend(r.Context(), outreach.BulkRequest{
		TalentIDs:  req.TalentIDs,
		CampaignID: req.CampaignID,
		TemplateID: req.TemplateID,
		Channel:    ch,
		Tone:       tone,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBulkView(res))
}

// HandleHistory handles GET /outreach/history/{talentId}.
func (h *OutreachHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.History(r.Context(), r.PathValue("talentId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]eventView, len(events))
	for i, ev := range events {
		out[i] = newEventView(ev)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleStatus handles POST /outreach/events/{eventId}/status. The optional
// "at" field is an RFC 3339 timestamp; it defaults to now.
func (h *OutreachHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var at time.Time
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", fmt.Errorf("%w: at: %w", ErrBadRequest, err))
			return
		}
		at = parsed
	}
	ev, err := h.deps.RecordStatus(r.Context(), r.PathValue("eventId"), model.EventStatus(req.Status), at)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEventView(ev))
}
