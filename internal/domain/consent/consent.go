// Package consent is the last gate before any message leaves the system.
package consent

import (
	"time"

	"github.com/okian/talentflow/internal/domain/model"
)

// Denial reasons.
const (
	ReasonRevoked  = "consent_revoked"
	ReasonDeclined = "declined"
)

// Verdict is the gate's answer for one send attempt.
type Verdict struct {
	Allowed bool
	Reason  string // set when denied
}

// Allow and Deny build verdicts.
func Allow() Verdict              { return Verdict{Allowed: true} }
func Deny(reason string) Verdict { return Verdict{Reason: reason} }

// Authorize decides whether t may be contacted right now. Revocation wins
// over a declined stage when both hold.
func Authorize(t *model.Talent) Verdict {
	if t.ConsentStatus == model.ConsentRevoked {
		return Deny(ReasonRevoked)
	}
	if t.FunnelStage == model.StageDeclined {
		return Deny(ReasonDeclined)
	}
	return Allow()
}

// Processing bases recorded in the consent log.
const (
	BasisConsent        = "consent"
	BasisSubjectRequest = "subject_request"
)

// Grant records consent on t. An empty basis means BasisConsent.
func Grant(t *model.Talent, basis string, now time.Time) string {
	if basis == "" {
		basis = BasisConsent
	}
	at := now
	t.ConsentStatus = model.ConsentGranted
	t.ConsentDate = &at
	t.DataProcessingBasis = basis
	t.UpdatedAt = now
	return basis
}

// Revoke withdraws consent on t. Every later Authorize call denies.
// ConsentDate keeps the date consent was last granted.
func Revoke(t *model.Talent, now time.Time) {
	t.ConsentStatus = model.ConsentRevoked
	t.UpdatedAt = now
}
