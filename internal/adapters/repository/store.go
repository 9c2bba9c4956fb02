// Package repository defines the outreach storage contracts and an
// in-memory implementation.
package repository

import (
	"context"

	"github.com/okian/talentflow/internal/domain/model"
)

// TalentStore reads and patches talents.
type TalentStore interface {
	// GetTalent returns ErrNotFound for unknown IDs.
	GetTalent(ctx context.Context, id string) (model.Talent, error)
	SaveTalent(ctx context.Context, t model.Talent) error
	// UpdateTalent applies mutate to the stored talent and persists the
	// result atomically. A mutate error aborts the update.
	UpdateTalent(ctx context.Context, id string, mutate func(*model.Talent) error) (model.Talent, error)
}

// CampaignStore manages campaigns and their enrollments.
type CampaignStore interface {
	GetCampaign(ctx context.Context, id string) (model.Campaign, error)
	SaveCampaign(ctx context.Context, c model.Campaign) error
	ListActiveCampaigns(ctx context.Context) ([]model.Campaign, error)
	// IncrementCounters adds delta to the campaign counters. Negative
	// components are ignored.
	IncrementCounters(ctx context.Context, id string, delta model.Counters) error

	Enroll(ctx context.Context, e model.Enrollment) error
	GetEnrollment(ctx context.Context, campaignID, talentID string) (model.Enrollment, error)
	ListEnrollments(ctx context.Context, campaignID string) ([]model.Enrollment, error)
}

// Ledger is the append-only outreach history.
type Ledger interface {
	AppendEvent(ctx context.Context, ev model.OutreachEvent) error
	GetEvent(ctx context.Context, id string) (model.OutreachEvent, error)
	// History returns a talent's events, newest first.
	History(ctx context.Context, talentID string) ([]model.OutreachEvent, error)
	// CampaignHistory returns the events of one (campaign, talent) pair,
	// oldest first.
	CampaignHistory(ctx context.Context, campaignID, talentID string) ([]model.OutreachEvent, error)
	// UpdateEvent applies mutate to an event and adds the returned counters
	// to the event's campaign in the same transaction.
	UpdateEvent(ctx context.Context, id string, mutate func(*model.OutreachEvent) (model.Counters, error)) (model.OutreachEvent, error)
}

// Catalog holds read-mostly render inputs.
type Catalog interface {
	GetTemplate(ctx context.Context, id string) (model.MessageTemplate, error)
	ListTemplates(ctx context.Context) ([]model.MessageTemplate, error)
	ListContent(ctx context.Context) ([]model.ContentPiece, error)
	ListChallenges(ctx context.Context) ([]model.Challenge, error)

	SaveTemplate(ctx context.Context, t model.MessageTemplate) error
	SaveContent(ctx context.Context, c model.ContentPiece) error
	SaveChallenge(ctx context.Context, c model.Challenge) error
}

// AuditLog keeps consent and activity trails.
type AuditLog interface {
	AppendActivity(ctx context.Context, a model.Activity) error
	Activities(ctx context.Context, talentID string) ([]model.Activity, error)
	ConsentHistory(ctx context.Context, talentID string) ([]model.ConsentRecord, error)
}

// SendRecord is everything a successful send changes.
type SendRecord struct {
	Event model.OutreachEvent
	// Touch is applied to the recipient inside the transaction.
	Touch func(*model.Talent)
	// Counters are added to Event.CampaignID when it is set.
	Counters model.Counters
	Activity *model.Activity
}

// ConsentChange is a consent update together with its log entry.
type ConsentChange struct {
	TalentID string
	Apply    func(*model.Talent)
	Record   model.ConsentRecord
}

// Store is the full storage surface used by the engine.
type Store interface {
	TalentStore
	CampaignStore
	Ledger
	Catalog
	AuditLog

	// CommitSend persists a send atomically and returns the updated talent.
	CommitSend(ctx context.Context, rec SendRecord) (model.Talent, error)
	// CommitConsent applies a consent change and logs it atomically.
	CommitConsent(ctx context.Context, ch ConsentChange) (model.Talent, error)

	Close() error
}
