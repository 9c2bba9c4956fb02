// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/talentflow/internal/adapters/transport"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/outreach"
	"github.com/okian/talentflow/internal/domain/sequence"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. *outreach.Engine implements it.
type Dependencies interface {
	Generate(ctx context.Context, req outreach.GenerateRequest) (outreach.Generated, error)
	Send(ctx context.Context, req outreach.SendRequest) (model.OutreachEvent, error)
	BulkSend(ctx context.Context, req outreach.BulkRequest) (outreach.BulkResult, error)
	History(ctx context.Context, talentID string) ([]model.OutreachEvent, error)
	RecordStatus(ctx context.Context, eventID string, status model.EventStatus, at time.Time) (model.OutreachEvent, error)

	MoveStage(ctx context.Context, talentID, stage string) (model.Talent, error)
	GrantConsent(ctx context.Context, talentID, basis, details string) (model.Talent, error)
	RevokeConsent(ctx context.Context, talentID, details string) (model.Talent, error)
	SubjectAccess(ctx context.Context, talentID string) (outreach.SubjectReport, error)

	Evaluate(ctx context.Context, campaignID, talentID string, now time.Time) (sequence.Decision, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	outreachHandler *OutreachHandler
	talentHandler   *TalentHandler
	campaignHandler *CampaignHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		outreachHandler: NewOutreachHandler(deps),
		talentHandler:   NewTalentHandler(deps),
		campaignHandler: NewCampaignHandler(deps, time.Now),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /outreach/generate", MetricsMiddleware(s.outreachHandler.HandleGenerate, "outreach_generate"))
	mux.HandleFunc("POST /outreach/send", MetricsMiddleware(s.outreachHandler.HandleSend, "outreach_send"))
	mux.HandleFunc("POST /outreach/bulk-send", MetricsMiddleware(s.outreachHandler.HandleBulkSend, "outreach_bulk_send"))
	mux.HandleFunc("GET /outreach/history/{talentId}", MetricsMiddleware(s.outreachHandler.HandleHistory, "outreach_history"))
	mux.HandleFunc("POST /outreach/events/{eventId}/status", MetricsMiddleware(s.outreachHandler.HandleStatus, "outreach_status"))

	mux.HandleFunc("POST /talents/{id}/stage", MetricsMiddleware(s.talentHandler.HandleMoveStage, "talent_stage"))
	mux.HandleFunc("POST /consent/{id}/grant", MetricsMiddleware(s.talentHandler.HandleGrant, "consent_grant"))
	mux.HandleFunc("POST /consent/{id}/revoke", MetricsMiddleware(s.talentHandler.HandleRevoke, "consent_revoke"))
	mux.HandleFunc("GET /consent/{id}/dsar", MetricsMiddleware(s.talentHandler.HandleSubjectAccess, "consent_dsar"))

	mux.HandleFunc("GET /campaigns/{id}/talents/{talentId}/next", MetricsMiddleware(s.campaignHandler.HandleNext, "campaign_next"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps an engine error to its HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	var authErr *outreach.AuthorizationError
	switch {
	case errors.As(err, &authErr):
		writeJSON(w, http.StatusForbidden, errorResponse{Code: "consent_denied", Message: err.Error(), Reason: authErr.Reason})
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, outreach.ErrCampaignInactive):
		writeError(w, http.StatusConflict, "campaign_inactive", err)
	case errors.Is(err, transport.ErrTransport):
		writeError(w, http.StatusBadGateway, "transport_failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
