// Package seed loads talents, campaigns and catalog entries from a YAML
// file into a store. It is meant for local runs and demos.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/funnel"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/sequence"
)

// ErrInvalidSeed wraps every validation failure in a seed document.
var ErrInvalidSeed = fmt.Errorf("invalid seed: %w", model.ErrValidation)

// Document is the seed file layout.
type Document struct {
	Talents    []Talent    `koanf:"talents"`
	Campaigns  []Campaign  `koanf:"campaigns"`
	Templates  []Template  `koanf:"templates"`
	Content    []Content   `koanf:"content"`
	Challenges []Challenge `koanf:"challenges"`
}

type Talent struct {
	ID                      string   `koanf:"id"`
	FullName                string   `koanf:"full_name"`
	PreferredName           string   `koanf:"preferred_name"`
	Email                   string   `koanf:"email"`
	Phone                   string   `koanf:"phone"`
	LinkedInURL             string   `koanf:"linkedin_url"`
	Location                string   `koanf:"location"`
	ExperienceLevel         string   `koanf:"experience_level"`
	SAPModules              []string `koanf:"sap_modules"`
	Source                  string   `koanf:"source"`
	SourceDetails           string   `koanf:"source_details"`
	FunnelStage             string   `koanf:"funnel_stage"`
	ConsentStatus           string   `koanf:"consent_status"`
	CommunicationPreference string   `koanf:"communication_preference"`
}

type Step struct {
	Order             int    `koanf:"order"`
	Name              string `koanf:"name"`
	Channel           string `koanf:"channel"`
	TemplateID        string `koanf:"template_id"`
	DelayDays         int    `koanf:"delay_days"`
	Condition         string `koanf:"condition"`
	AIPersonalization bool   `koanf:"ai_personalization"`
}

type Enrollment struct {
	TalentID string `koanf:"talent_id"`
	// EnrolledAt is RFC 3339; empty means load time.
	EnrolledAt string `koanf:"enrolled_at"`
}

type Campaign struct {
	ID          string       `koanf:"id"`
	Name        string       `koanf:"name"`
	Description string       `koanf:"description"`
	Status      string       `koanf:"status"`
	Channel     string       `koanf:"channel"`
	Steps       []Step       `koanf:"steps"`
	Enrollments []Enrollment `koanf:"enrollments"`
}

type Template struct {
	ID              string   `koanf:"id"`
	Name            string   `koanf:"name"`
	Channel         string   `koanf:"channel"`
	Subject         string   `koanf:"subject"`
	Body            string   `koanf:"body"`
	Variables       []string `koanf:"variables"`
	ExperienceLevel string   `koanf:"experience_level"`
	Category        string   `koanf:"category"`
	ResponseRate    float64  `koanf:"response_rate"`
}

type Content struct {
	ID               string   `koanf:"id"`
	Title            string   `koanf:"title"`
	URL              string   `koanf:"url"`
	Summary          string   `koanf:"summary"`
	SAPModules       []string `koanf:"sap_modules"`
	ExperienceLevel  string   `koanf:"experience_level"`
	EngagementCount  int      `koanf:"engagement_count"`
	IsAccentureAsset bool     `koanf:"is_accenture_asset"`
}

type Challenge struct {
	ID          string `koanf:"id"`
	Title       string `koanf:"title"`
	Difficulty  string `koanf:"difficulty"`
	SAPModule   string `koanf:"sap_module"`
	TimeLimit   int    `koanf:"time_limit"`
	IsActive    bool   `koanf:"is_active"`
	Completions int    `koanf:"completions"`
}

// Summary counts what a load wrote.
type Summary struct {
	Talents     int
	Campaigns   int
	Enrollments int
	Templates   int
	Content     int
	Challenges  int
}

// ReadFile parses a seed document from a YAML file.
func ReadFile(path string) (Document, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Document{}, fmt.Errorf("read seed %s: %w", path, err)
	}
	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (Document, error) {
	var doc Document
	if err := k.UnmarshalWithConf("", &doc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Document{}, fmt.Errorf("decode seed: %w", err)
	}
	return doc, nil
}

// Apply validates doc and writes it to store. Catalog entries go first so
// campaigns can reference them; enrollments last.
func Apply(ctx context.Context, store repository.Store, doc Document, now time.Time) (Summary, error) {
	var sum Summary

	for _, t := range doc.Templates {
		if err := store.SaveTemplate(ctx, t.model()); err != nil {
			return sum, fmt.Errorf("template %s: %w", t.ID, err)
		}
		sum.Templates++
	}
	for _, c := range doc.Content {
		if err := store.SaveContent(ctx, c.model()); err != nil {
			return sum, fmt.Errorf("content %s: %w", c.ID, err)
		}
		sum.Content++
	}
	for _, c := range doc.Challenges {
		if err := store.SaveChallenge(ctx, c.model()); err != nil {
			return sum, fmt.Errorf("challenge %s: %w", c.ID, err)
		}
		sum.Challenges++
	}
	for _, t := range doc.Talents {
		m, err := t.model(now)
		if err != nil {
			return sum, err
		}
		if err := store.SaveTalent(ctx, m); err != nil {
			return sum, fmt.Errorf("talent %s: %w", t.ID, err)
		}
		sum.Talents++
	}
	for _, c := range doc.Campaigns {
		m, err := c.model(now)
		if err != nil {
			return sum, err
		}
		if err := store.SaveCampaign(ctx, m); err != nil {
			return sum, fmt.Errorf("campaign %s: %w", c.ID, err)
		}
		sum.Campaigns++
		for _, e := range c.Enrollments {
			at := now
			if e.EnrolledAt != "" {
				if at, err = time.Parse(time.RFC3339, e.EnrolledAt); err != nil {
					return sum, fmt.Errorf("%w: campaign %s enrollment %s: %w", ErrInvalidSeed, c.ID, e.TalentID, err)
				}
			}
			if err := store.Enroll(ctx, model.Enrollment{CampaignID: c.ID, TalentID: e.TalentID, EnrolledAt: at}); err != nil {
				return sum, fmt.Errorf("enroll %s in %s: %w", e.TalentID, c.ID, err)
			}
			sum.Enrollments++
		}
	}
	return sum, nil
}

func (t Talent) model(now time.Time) (model.Talent, error) {
	if t.ID == "" || t.FullName == "" {
		return model.Talent{}, fmt.Errorf("%w: talent needs id and full_name", ErrInvalidSeed)
	}
	level := model.ExperienceLevel(t.ExperienceLevel)
	if !level.Valid() {
		return model.Talent{}, fmt.Errorf("%w: talent %s: experience level %q", ErrInvalidSeed, t.ID, t.ExperienceLevel)
	}
	stage := model.StageDiscovered
	if t.FunnelStage != "" {
		s, err := funnel.Parse(t.FunnelStage)
		if err != nil {
			return model.Talent{}, fmt.Errorf("talent %s: %w", t.ID, err)
		}
		stage = s
	}
	status := model.ConsentPending
	if t.ConsentStatus != "" {
		status = model.ConsentStatus(t.ConsentStatus)
	}
	return model.Talent{
		ID:                      t.ID,
		FullName:                t.FullName,
		PreferredName:           t.PreferredName,
		Email:                   t.Email,
		Phone:                   t.Phone,
		LinkedInURL:             t.LinkedInURL,
		Location:                t.Location,
		ExperienceLevel:         level,
		SAPModules:              t.SAPModules,
		Source:                  t.Source,
		SourceDetails:           t.SourceDetails,
		FunnelStage:             stage,
		ConsentStatus:           status,
		CommunicationPreference: model.Channel(t.CommunicationPreference),
		CreatedAt:               now,
		UpdatedAt:               now,
	}, nil
}

func (c Campaign) model(now time.Time) (model.Campaign, error) {
	if c.ID == "" {
		return model.Campaign{}, fmt.Errorf("%w: campaign needs an id", ErrInvalidSeed)
	}
	steps := make([]model.CampaignStep, 0, len(c.Steps))
	for _, s := range c.Steps {
		steps = append(steps, model.CampaignStep{
			Order:             s.Order,
			Name:              s.Name,
			Channel:           model.Channel(s.Channel),
			TemplateID:        s.TemplateID,
			DelayDays:         s.DelayDays,
			Condition:         model.StepCondition(s.Condition),
			AIPersonalization: s.AIPersonalization,
		})
	}
	steps, err := sequence.ValidateSteps(steps)
	if err != nil {
		return model.Campaign{}, fmt.Errorf("campaign %s: %w", c.ID, err)
	}
	status := model.CampaignDraft
	if c.Status != "" {
		status = model.CampaignStatus(c.Status)
	}
	return model.Campaign{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Status:      status,
		Channel:     model.Channel(c.Channel),
		Steps:       steps,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (t Template) model() model.MessageTemplate {
	level := model.ExperienceLevel(t.ExperienceLevel)
	if level == "" {
		level = model.LevelAll
	}
	return model.MessageTemplate{
		ID:              t.ID,
		Name:            t.Name,
		Channel:         model.Channel(t.Channel),
		Subject:         t.Subject,
		Body:            t.Body,
		Variables:       t.Variables,
		ExperienceLevel: level,
		Category:        model.TemplateCategory(t.Category),
		ResponseRate:    t.ResponseRate,
	}
}

func (c Content) model() model.ContentPiece {
	level := model.ExperienceLevel(c.ExperienceLevel)
	if level == "" {
		level = model.LevelAll
	}
	return model.ContentPiece{
		ID:               c.ID,
		Title:            c.Title,
		URL:              c.URL,
		Summary:          c.Summary,
		SAPModules:       c.SAPModules,
		ExperienceLevel:  level,
		EngagementCount:  c.EngagementCount,
		IsAccentureAsset: c.IsAccentureAsset,
	}
}

func (c Challenge) model() model.Challenge {
	return model.Challenge{
		ID:          c.ID,
		Title:       c.Title,
		Difficulty:  model.ExperienceLevel(c.Difficulty),
		SAPModule:   c.SAPModule,
		TimeLimit:   c.TimeLimit,
		IsActive:    c.IsActive,
		Completions: c.Completions,
	}
}
