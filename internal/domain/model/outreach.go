package model

import "time"

// EventStatus is the delivery state of an outreach attempt.
type EventStatus string

const (
	StatusPending   EventStatus = "pending"
	StatusSent      EventStatus = "sent"
	StatusDelivered EventStatus = "delivered"
	StatusOpened    EventStatus = "opened"
	StatusResponded EventStatus = "responded"
	StatusFailed    EventStatus = "failed"
)

// Reached reports whether the message left the system (sent or any later state).
func (s EventStatus) Reached() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusOpened, StatusResponded:
		return true
	}
	return false
}

// OutreachEvent is one message attempt in the append-only ledger.
type OutreachEvent struct {
	ID         string
	TalentID   string
	CampaignID string // empty for ad-hoc sends
	TemplateID string
	StepOrder  int // 0 for ad-hoc sends
	Channel    Channel
	Subject    string
	Body       string

	PersonalizedElements []string

	Status EventStatus
	Error  string

	SentAt      *time.Time
	DeliveredAt *time.Time
	OpenedAt    *time.Time
	RespondedAt *time.Time
	CreatedAt   time.Time
}

// ConsentAction is a consent log verb.
type ConsentAction string

const (
	ConsentActionGrant  ConsentAction = "grant"
	ConsentActionRevoke ConsentAction = "revoke"
)

// ConsentRecord is an entry in the consent audit log.
type ConsentRecord struct {
	ID        string
	TalentID  string
	Action    ConsentAction
	Basis     string
	Details   string
	CreatedAt time.Time
}

// Activity types recorded against a talent.
const (
	ActivityOutreachSent = "outreach_sent"
	ActivityStageChanged = "stage_changed"
)

// Activity is an engagement log entry for a talent.
type Activity struct {
	ID        string
	TalentID  string
	Type      string
	Details   map[string]string
	CreatedAt time.Time
}

// Dispatch is the unit of work flowing through the queue: evaluate and,
// if due, send the next step of a campaign to a talent.
type Dispatch struct {
	CampaignID string
	TalentID   string
	EnqueuedAt time.Time
}

// Key identifies the (campaign, talent) pair for in-flight tracking.
func (d Dispatch) Key() string {
	return d.CampaignID + "/" + d.TalentID
}
