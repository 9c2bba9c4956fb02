package model

import "time"

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// StepCondition gates a campaign step on the talent's outreach history.
type StepCondition string

const (
	ConditionNone               StepCondition = "none"
	ConditionNoResponse         StepCondition = "no_response"
	ConditionOpenedNotResponded StepCondition = "opened_not_responded"
)

// CampaignStep is one scheduled message in a drip sequence.
type CampaignStep struct {
	Order             int
	Name              string
	Channel           Channel
	TemplateID        string
	DelayDays         int
	Condition         StepCondition // empty means ConditionNone
	AIPersonalization bool
}

// Counters are aggregate campaign metrics. They only ever grow.
type Counters struct {
	Sent      int64
	Delivered int64
	Opened    int64
	Responded int64
	Engaged   int64
}

// Add returns c incremented by d. Negative deltas are ignored.
func (c Counters) Add(d Counters) Counters {
	c.Sent += nonNegative(d.Sent)
	c.Delivered += nonNegative(d.Delivered)
	c.Opened += nonNegative(d.Opened)
	c.Responded += nonNegative(d.Responded)
	c.Engaged += nonNegative(d.Engaged)
	return c
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// Campaign is a multi-step outreach sequence.
type Campaign struct {
	ID          string
	Name        string
	Description string
	Status      CampaignStatus
	Channel     Channel

	// Targeting filters; used for enrollment only.
	TargetExperienceLevels []ExperienceLevel
	TargetSAPModules       []string
	TargetLocations        []string

	Steps    []CampaignStep
	Counters Counters

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Step returns the step with the given order.
func (c *Campaign) Step(order int) (CampaignStep, bool) {
	for _, s := range c.Steps {
		if s.Order == order {
			return s, true
		}
	}
	return CampaignStep{}, false
}

// Enrollment binds a talent to a campaign. EnrolledAt anchors step 1's delay.
type Enrollment struct {
	CampaignID string
	TalentID   string
	EnrolledAt time.Time
}
