// Package model contains domain models passed between layers.
package model

import "time"

// ExperienceLevel is a talent's seniority bucket.
type ExperienceLevel string

const (
	LevelEntry       ExperienceLevel = "entry"
	LevelExperienced ExperienceLevel = "experienced"
	LevelLead        ExperienceLevel = "lead"
	LevelExpert      ExperienceLevel = "expert"

	// LevelAll is only valid on templates and content pieces.
	LevelAll ExperienceLevel = "all"
)

// Valid reports whether l is a talent experience level (LevelAll excluded).
func (l ExperienceLevel) Valid() bool {
	switch l {
	case LevelEntry, LevelExperienced, LevelLead, LevelExpert:
		return true
	}
	return false
}

// Matches reports whether a template/content level applies to a talent level.
func (l ExperienceLevel) Matches(talent ExperienceLevel) bool {
	return l == LevelAll || l == talent
}

// FunnelStage is a talent's position in the hiring pipeline.
type FunnelStage string

const (
	StageDiscovered    FunnelStage = "discovered"
	StageEnriched      FunnelStage = "enriched"
	StageOutreachReady FunnelStage = "outreach_ready"
	StageContacted     FunnelStage = "contacted"
	StageEngaged       FunnelStage = "engaged"
	StageResponded     FunnelStage = "responded"
	StageScreening     FunnelStage = "screening"
	StageInterviewing  FunnelStage = "interviewing"
	StageOffer         FunnelStage = "offer"
	StageHired         FunnelStage = "hired"
	StageDeclined      FunnelStage = "declined"
)

// ConsentStatus tracks the data subject's consent (LGPD).
type ConsentStatus string

const (
	ConsentPending     ConsentStatus = "pending"
	ConsentGranted     ConsentStatus = "granted"
	ConsentRevoked     ConsentStatus = "revoked"
	ConsentNotRequired ConsentStatus = "not_required"
)

// Channel is a delivery channel for outreach messages.
type Channel string

const (
	ChannelEmail        Channel = "email"
	ChannelLinkedIn     Channel = "linkedin"
	ChannelWhatsApp     Channel = "whatsapp"
	ChannelSMS          Channel = "sms"
	ChannelSAPCommunity Channel = "sap_community"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelLinkedIn, ChannelWhatsApp, ChannelSMS, ChannelSAPCommunity:
		return true
	}
	return false
}

// Talent is a candidate tracked through the funnel. The engine reads talents
// and only writes FunnelStage, LastContactedAt and the consent fields.
type Talent struct {
	ID            string
	FullName      string
	PreferredName string
	Email         string
	Phone         string
	LinkedInURL   string
	Location      string

	ExperienceLevel ExperienceLevel
	SAPModules      []string

	Source        string // github, meetup, linkedin, referral, ...
	SourceDetails string

	FunnelStage         FunnelStage
	ConsentStatus       ConsentStatus
	ConsentDate         *time.Time
	DataProcessingBasis string

	CommunicationPreference Channel
	LastContactedAt         *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address returns the recipient address for a channel, or "" when unknown.
func (t *Talent) Address(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return t.Email
	case ChannelWhatsApp, ChannelSMS:
		return t.Phone
	case ChannelLinkedIn:
		return t.LinkedInURL
	default:
		return t.ID
	}
}
