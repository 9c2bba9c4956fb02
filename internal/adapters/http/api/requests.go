package api

import (
	"fmt"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/render"
)

type generateRequest struct {
	TalentID                  string `json:"talentId"`
	TemplateID                string `json:"templateId"`
	Channel                   string `json:"channel"`
	Tone                      string `json:"tone"`
	IncludeContentSuggestions *bool  `json:"includeContentSuggestions"`
	IncludeChallenge          *bool  `json:"includeChallenge"`
}

type sendRequest struct {
	TalentID             string   `json:"talentId"`
	CampaignID           string   `json:"campaignId"`
	TemplateID           string   `json:"templateId"`
	Channel              string   `json:"channel"`
	Tone                 string   `json:"tone"`
	Subject              string   `json:"subject"`
	Body                 string   `json:"body"`
	PersonalizedElements []string `json:"personalizedElements"`
}

type bulkSendRequest struct {
	TalentIDs  []string `json:"talentIds"`
	CampaignID string   `json:"campaignId"`
	TemplateID string   `json:"templateId"`
	Channel    string   `json:"channel"`
	Tone       string   `json:"tone"`
}

type statusRequest struct {
	Status string `json:"status"`
	At     string `json:"at"`
}

type stageRequest struct {
	Stage string `json:"stage"`
}

type consentRequest struct {
	Basis   string `json:"basis"`
	Details string `json:"details"`
}

// parseDelivery validates the optional channel and tone of a request.
func parseDelivery(channel, tone string) (model.Channel, render.Tone, error) {
	ch := model.Channel(channel)
	if ch != "" && !ch.Valid() {
		return "", "", fmt.Errorf("%w: unknown channel %q", model.ErrValidation, channel)
	}
	t, err := render.ParseTone(tone)
	if err != nil {
		return "", "", err
	}
	return ch, t, nil
}
