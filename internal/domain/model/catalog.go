package model

// TemplateCategory classifies message templates.
type TemplateCategory string

const (
	CategoryInitialOutreach TemplateCategory = "initial_outreach"
	CategoryFollowUp        TemplateCategory = "follow_up"
	CategoryValueOffer      TemplateCategory = "value_offer"
	CategoryChallengeInvite TemplateCategory = "challenge_invite"
	CategoryContentShare    TemplateCategory = "content_share"
	CategoryEventInvite     TemplateCategory = "event_invite"
)

// MessageTemplate is a read-only input to the renderer.
type MessageTemplate struct {
	ID              string
	Name            string
	Channel         Channel
	Subject         string // optional
	Body            string
	Variables       []string
	ExperienceLevel ExperienceLevel // a talent level or LevelAll
	Category        TemplateCategory
	ResponseRate    float64
}

// ContentPiece is supporting content offered alongside a message.
type ContentPiece struct {
	ID               string
	Title            string
	URL              string
	Summary          string
	SAPModules       []string
	ExperienceLevel  ExperienceLevel
	EngagementCount  int
	IsAccentureAsset bool
}

// Challenge is a gamified assessment offered to talents.
type Challenge struct {
	ID          string
	Title       string
	Difficulty  ExperienceLevel
	SAPModule   string
	TimeLimit   int // minutes; 0 when unbounded
	IsActive    bool
	Completions int
}
