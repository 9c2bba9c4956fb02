package api

import (
	"time"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/outreach"
	"github.com/okian/talentflow/internal/domain/sequence"
)

// Wire shapes. Field names follow the camelCase the recruiting front end uses.

type eventView struct {
	ID                   string     `json:"id"`
	TalentID             string     `json:"talentId"`
	CampaignID           string     `json:"campaignId,omitempty"`
	TemplateID           string     `json:"templateId,omitempty"`
	StepOrder            int        `json:"stepOrder"`
	Channel              string     `json:"channel"`
	Subject              string     `json:"subject"`
	Body                 string     `json:"body"`
	PersonalizedElements []string   `json:"personalizedElements"`
	Status               string     `json:"status"`
	Error                string     `json:"error,omitempty"`
	SentAt               *time.Time `json:"sentAt,omitempty"`
	DeliveredAt          *time.Time `json:"deliveredAt,omitempty"`
	OpenedAt             *time.Time `json:"openedAt,omitempty"`
	RespondedAt          *time.Time `json:"respondedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

func newEventView(ev model.OutreachEvent) eventView {
	elems := ev.PersonalizedElements
	if elems == nil {
		elems = []string{}
	}
	return eventView{
		ID:                   ev.ID,
		TalentID:             ev.TalentID,
		CampaignID:           ev.CampaignID,
		TemplateID:           ev.TemplateID,
		StepOrder:            ev.StepOrder,
		Channel:              string(ev.Channel),
		Subject:              ev.Subject,
		Body:                 ev.Body,
		PersonalizedElements: elems,
		Status:               string(ev.Status),
		Error:                ev.Error,
		SentAt:               ev.SentAt,
		DeliveredAt:          ev.DeliveredAt,
		OpenedAt:             ev.OpenedAt,
		RespondedAt:          ev.RespondedAt,
		CreatedAt:            ev.CreatedAt,
	}
}

type talentView struct {
	ID                  string     `json:"id"`
	FullName            string     `json:"fullName"`
	FunnelStage         string     `json:"funnelStage"`
	ConsentStatus       string     `json:"consentStatus"`
	ConsentDate         *time.Time `json:"consentDate,omitempty"`
	DataProcessingBasis string     `json:"dataProcessingBasis,omitempty"`
	LastContactedAt     *time.Time `json:"lastContactedAt,omitempty"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func newTalentView(t model.Talent) talentView {
	return talentView{
		ID:                  t.ID,
		FullName:            t.FullName,
		FunnelStage:         string(t.FunnelStage),
		ConsentStatus:       string(t.ConsentStatus),
		ConsentDate:         t.ConsentDate,
		DataProcessingBasis: t.DataProcessingBasis,
		LastContactedAt:     t.LastContactedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

type generatedView struct {
	Subject                string   `json:"subject"`
	Body                   string   `json:"body"`
	PersonalizedElements   []string `json:"personalizedElements"`
	SuggestedContentPieces []string `json:"suggestedContentPieces"`
	SuggestedChallenge     *string  `json:"suggestedChallenge"`
	LGPDCompliant          bool     `json:"lgpdCompliant"`
	Channel                string   `json:"channel"`
	TemplateID             string   `json:"templateId,omitempty"`
}

func newGeneratedView(g outreach.Generated) generatedView {
	v := generatedView{
		Subject:                g.Subject,
		Body:                   g.Body,
		PersonalizedElements:   g.PersonalizedElements,
		SuggestedContentPieces: g.SuggestedContent,
		LGPDCompliant:          g.Compliant,
		Channel:                string(g.Channel),
		TemplateID:             g.TemplateID,
	}
	if v.PersonalizedElements == nil {
		v.PersonalizedElements = []string{}
	}
	if v.SuggestedContentPieces == nil {
		v.SuggestedContentPieces = []string{}
	}
	if g.SuggestedChallenge != "" {
		v.SuggestedChallenge = &g.SuggestedChallenge
	}
	return v
}

type bulkItemView struct {
	TalentID string `json:"talentId"`
	Status   string `json:"status"`
	EventID  string `json:"eventId,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type bulkView struct {
	Sent    int            `json:"sent"`
	Skipped int            `json:"skipped"`
	Failed  int            `json:"failed"`
	Total   int            `json:"total"`
	Results []bulkItemView `json:"results"`
}

func newBulkView(r outreach.BulkResult) bulkView {
	v := bulkView{Sent: r.Sent, Skipped: r.Skipped, Failed: r.Failed, Total: r.Total, Results: make([]bulkItemView, len(r.Items))}
	for i, it := range r.Items {
		v.Results[i] = bulkItemView(it)
	}
	return v
}

type stepView struct {
	Order      int    `json:"order"`
	Name       string `json:"name"`
	Channel    string `json:"channel,omitempty"`
	TemplateID string `json:"templateId,omitempty"`
	DelayDays  int    `json:"delayDays"`
	Condition  string `json:"condition,omitempty"`
}

type decisionView struct {
	Kind  string     `json:"kind"`
	Step  *stepView  `json:"step,omitempty"`
	DueAt *time.Time `json:"dueAt,omitempty"`
}

func newDecisionView(d sequence.Decision) decisionView {
	v := decisionView{Kind: string(d.Kind)}
	if d.Kind != sequence.KindExhausted {
		due := d.DueAt
		v.DueAt = &due
		v.Step = &stepView{
			Order:      d.Step.Order,
			Name:       d.Step.Name,
			Channel:    string(d.Step.Channel),
			TemplateID: d.Step.TemplateID,
			DelayDays:  d.Step.DelayDays,
			Condition:  string(d.Step.Condition),
		}
	}
	return v
}

type personalDataView struct {
	FullName      string `json:"fullName"`
	PreferredName string `json:"preferredName,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	LinkedInURL   string `json:"linkedinUrl,omitempty"`
	Location      string `json:"location,omitempty"`
}

type professionalDataView struct {
	ExperienceLevel string   `json:"experienceLevel"`
	SAPModules      []string `json:"sapModules"`
}

type processingView struct {
	Source                  string     `json:"source,omitempty"`
	SourceDetails           string     `json:"sourceDetails,omitempty"`
	ConsentStatus           string     `json:"consentStatus"`
	ConsentDate             *time.Time `json:"consentDate,omitempty"`
	ProcessingBasis         string     `json:"processingBasis,omitempty"`
	CommunicationPreference string     `json:"communicationPreference,omitempty"`
	CreatedAt               time.Time  `json:"createdAt"`
}

type activityView struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Details   map[string]string `json:"details,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type consentRecordView struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Basis     string    `json:"basis"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type subjectAccessView struct {
	TalentID             string               `json:"talentId"`
	PersonalData         personalDataView     `json:"personalData"`
	ProfessionalData     professionalDataView `json:"professionalData"`
	ProcessingDetails    processingView       `json:"processingDetails"`
	FunnelStage          string               `json:"funnelStage"`
	LastContactedAt      *time.Time           `json:"lastContactedAt,omitempty"`
	CommunicationHistory []eventView          `json:"communicationHistory"`
	ActivityLog          []activityView       `json:"activityLog"`
	ConsentHistory       []consentRecordView  `json:"consentHistory"`
}

func newSubjectAccessView(r outreach.SubjectReport) subjectAccessView {
	t := r.Talent
	modules := t.SAPModules
	if modules == nil {
		modules = []string{}
	}
	v := subjectAccessView{
		TalentID: t.ID,
		PersonalData: personalDataView{
			FullName:      t.FullName,
			PreferredName: t.PreferredName,
			Email:         t.Email,
			Phone:         t.Phone,
			LinkedInURL:   t.LinkedInURL,
			Location:      t.Location,
		},
		ProfessionalData: professionalDataView{
			ExperienceLevel: string(t.ExperienceLevel),
			SAPModules:      modules,
		},
		ProcessingDetails: processingView{
			Source:                  t.Source,
			SourceDetails:           t.SourceDetails,
			ConsentStatus:           string(t.ConsentStatus),
			ConsentDate:             t.ConsentDate,
			ProcessingBasis:         t.DataProcessingBasis,
			CommunicationPreference: string(t.CommunicationPreference),
			CreatedAt:               t.CreatedAt,
		},
		FunnelStage:          string(t.FunnelStage),
		LastContactedAt:      t.LastContactedAt,
		CommunicationHistory: make([]eventView, len(r.History)),
		ActivityLog:          make([]activityView, len(r.Activities)),
		ConsentHistory:       make([]consentRecordView, len(r.Consents)),
	}
	for i, ev := range r.History {
		v.CommunicationHistory[i] = newEventView(ev)
	}
	for i, a := range r.Activities {
		v.ActivityLog[i] = activityView{ID: a.ID, Type: a.Type, Details: a.Details, CreatedAt: a.CreatedAt}
	}
	for i, c := range r.Consents {
		v.ConsentHistory[i] = consentRecordView{
			ID:        c.ID,
			Action:    string(c.Action),
			Basis:     c.Basis,
			Details:   c.Details,
			CreatedAt: c.CreatedAt,
		}
	}
	return v
}
