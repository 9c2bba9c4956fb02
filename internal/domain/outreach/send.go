package outreach

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/talentflow/internal/domain/consent"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/render"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/okian/talentflow/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// GenerateRequest asks for a rendered message without sending it.
type GenerateRequest struct {
	TalentID   string
	TemplateID string // empty selects the best initial outreach template
	Channel    model.Channel
	Tone       render.Tone

	// Nil means include.
	IncludeContent   *bool
	IncludeChallenge *bool
}

// Generated is a rendered message preview.
type Generated struct {
	Subject              string
	Body                 string
	PersonalizedElements []string
	SuggestedContent     []string
	SuggestedChallenge   string
	Compliant            bool
	Channel              model.Channel
	TemplateID           string
}

// Generate renders a message for a talent without sending it.
func (e *Engine) Generate(ctx context.Context, req GenerateRequest) (Generated, error) {
	t, err := e.store.GetTalent(ctx, req.TalentID)
	if err != nil {
		return Generated{}, err
	}
	tpl, err := e.pickTemplate(ctx, &t, req.TemplateID)
	if err != nil {
		return Generated{}, err
	}
	msg, err := e.compose(ctx, &t, tpl, req.Tone, include(req.IncludeContent), include(req.IncludeChallenge))
	if err != nil {
		return Generated{}, err
	}

	out := Generated{
		Subject:              msg.Result.Subject,
		Body:                 msg.Result.Body,
		PersonalizedElements: msg.Result.Elements(),
		SuggestedContent:     make([]string, 0, len(msg.Content)),
		Compliant:            consent.Authorize(&t).Allowed,
		Channel:              pickChannel(req.Channel, t.CommunicationPreference),
	}
	for _, c := range msg.Content {
		out.SuggestedContent = append(out.SuggestedContent, c.Title)
	}
	if msg.Challenge != nil {
		out.SuggestedChallenge = msg.Challenge.Title
	}
	if tpl != nil {
		out.TemplateID = tpl.ID
	}
	return out, nil
}

// pickTemplate loads id, or selects the best template for t's level when id
// is empty. A nil template means the default body.
func (e *Engine) pickTemplate(ctx context.Context, t *model.Talent, id string) (*model.MessageTemplate, error) {
	if id != "" {
		return e.template(ctx, id)
	}
	all, err := e.store.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	if tpl, ok := render.SelectTemplate(t.ExperienceLevel, all); ok {
		return &tpl, nil
	}
	return nil, nil
}

func include(flag *bool) bool { return flag == nil || *flag }

// SendRequest is an ad-hoc send outside the campaign schedule. When Body is
// empty the message is rendered from TemplateID (or the best template).
type SendRequest struct {
	TalentID   string
	CampaignID string
	TemplateID string
	Channel    model.Channel
	Tone       render.Tone

	Subject              string
	Body                 string
	PersonalizedElements []string
}

// requireActive fails unless campaignID is empty or names an active
// campaign.
func (e *Engine) requireActive(ctx context.Context, campaignID string) error {
	if campaignID == "" {
		return nil
	}
	c, err := e.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if c.Status != model.CampaignActive {
		return fmt.Errorf("%w: %s is %s", ErrCampaignInactive, c.ID, c.Status)
	}
	return nil
}

// Send delivers one message to a talent and records it. A named campaign
// must be active.
func (e *Engine) Send(ctx context.Context, req SendRequest) (ev model.OutreachEvent, err error) {
	ctx, span := e.tracer.Start(ctx, "outreach.Send", trace.WithAttributes(
		attribute.String("talent.id", req.TalentID),
		attribute.String("campaign.id", req.CampaignID),
	))
	defer func() { endSpan(span, err) }()

	if req.TalentID == "" {
		return model.OutreachEvent{}, fmt.Errorf("%w: talent id is required", ErrInvalidInput)
	}
	if err := e.requireActive(ctx, req.CampaignID); err != nil {
		return model.OutreachEvent{}, err
	}

	unlock := e.locks.Lock(req.TalentID)
	defer unlock()

	recorded, err := e.sendOne(ctx, req)
	if recorded != nil {
		ev = *recorded
	}
	return ev, err
}

// sendOne builds the event for req and delivers it. The caller holds the
// talent lock.
func (e *Engine) sendOne(ctx context.Context, req SendRequest) (*model.OutreachEvent, error) {
	t, err := e.store.GetTalent(ctx, req.TalentID)
	if err != nil {
		return nil, err
	}

	ev := model.OutreachEvent{
		ID:                   e.newID(),
		TalentID:             t.ID,
		CampaignID:           req.CampaignID,
		TemplateID:           req.TemplateID,
		Channel:              pickChannel(req.Channel, t.CommunicationPreference),
		Subject:              req.Subject,
		Body:                 req.Body,
		PersonalizedElements: req.PersonalizedElements,
		CreatedAt:            e.now(),
	}
	if ev.Body == "" {
		tpl, err := e.pickTemplate(ctx, &t, req.TemplateID)
		if err != nil {
			return nil, err
		}
		msg, err := e.compose(ctx, &t, tpl, req.Tone, true, true)
		if err != nil {
			return nil, err
		}
		ev.Body = msg.Result.Body
		ev.PersonalizedElements = msg.Result.Elements()
		if ev.Subject == "" {
			ev.Subject = msg.Result.Subject
		}
		if tpl != nil {
			ev.TemplateID = tpl.ID
		}
	}
	return e.deliver(ctx, ev)
}

// BulkRequest sends one rendered message to each listed talent.
type BulkRequest struct {
	TalentIDs  []string
	CampaignID string
	TemplateID string
	Channel    model.Channel
	Tone       render.Tone
}

// Bulk item statuses.
const (
	BulkSent    = "sent"
	BulkSkipped = "skipped"
	BulkFailed  = "failed"
)

// BulkItem is the outcome for one talent of a bulk send.
type BulkItem struct {
	TalentID string
	Status   string
	EventID  string
	Reason   string
}

// BulkResult summarizes a bulk send. Sent+Skipped+Failed == Total.
type BulkResult struct {
	Sent    int
	Skipped int
	Failed  int
	Total   int
	Items   []BulkItem
}

// BulkSend sends to every talent in req in parallel, one talent at a time
// per lock. Missing, revoked and declined talents and repeated IDs are
// skipped; transport failures are counted as failed. The campaign's sent
// counter grows by exactly Sent. A named campaign must be active.
func (e *Engine) BulkSend(ctx context.Context, req BulkRequest) (res BulkResult, err error) {
	ctx, span := e.tracer.Start(ctx, "outreach.BulkSend", trace.WithAttributes(
		attribute.String("campaign.id", req.CampaignID),
		attribute.Int("talents", len(req.TalentIDs)),
	))
	defer func() { endSpan(span, err) }()

	if len(req.TalentIDs) == 0 {
		return BulkResult{}, ErrEmptyBulk
	}
	if err := e.requireActive(ctx, req.CampaignID); err != nil {
		return BulkResult{}, err
	}

	items := make([]BulkItem, len(req.TalentIDs))
	seen := make(map[string]bool, len(req.TalentIDs))

	var g errgroup.Group
	g.SetLimit(e.bulkConcurrency)
	for i, id := range req.TalentIDs {
		if seen[id] {
			items[i] = BulkItem{TalentID: id, Status: BulkSkipped, Reason: "duplicate"}
			continue
		}
		seen[id] = true

		g.Go(func() error {
			items[i] = e.bulkOne(ctx, req, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BulkResult{}, err
	}

	res = BulkResult{Total: len(items), Items: items}
	for _, it := range items {
		switch it.Status {
		case BulkSent:
			res.Sent++
		case BulkSkipped:
			res.Skipped++
		default:
			res.Failed++
		}
	}
	metrics.RecordBulkResult(res.Sent, res.Skipped, res.Failed)
	e.log.Info(ctx, "bulk send finished",
		logger.String("campaign_id", req.CampaignID),
		logger.Int("sent", res.Sent),
		logger.Int("skipped", res.Skipped),
		logger.Int("failed", res.Failed),
	)
	return res, nil
}

func (e *Engine) bulkOne(ctx context.Context, req BulkRequest, talentID string) BulkItem {
	item := BulkItem{TalentID: talentID}
	if err := ctx.Err(); err != nil {
		item.Status, item.Reason = BulkFailed, err.Error()
		return item
	}

	unlock := e.locks.Lock(talentID)
	defer unlock()

	ev, err := e.sendOne(ctx, SendRequest{
		TalentID:   talentID,
		CampaignID: req.CampaignID,
		TemplateID: req.TemplateID,
		Channel:    req.Channel,
		Tone:       req.Tone,
	})
	var authErr *AuthorizationError
	switch {
	case err == nil:
		item.Status, item.EventID = BulkSent, ev.ID
	case errors.Is(err, model.ErrNotFound) && ev == nil:
		item.Status, item.Reason = BulkSkipped, "not_found"
	case errors.As(err, &authErr):
		item.Status, item.Reason = BulkSkipped, authErr.Reason
	default:
		item.Status, item.Reason = BulkFailed, err.Error()
		if ev != nil {
			item.EventID = ev.ID
		}
	}
	return item
}
