// Package outreach is the campaign outreach engine. It decides which
// campaign step is due for a talent, renders it, runs the consent gate and
// hands the message to a transport, recording the result atomically.
package outreach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/adapters/transport"
	"github.com/okian/talentflow/internal/domain/consent"
	"github.com/okian/talentflow/internal/domain/funnel"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/render"
	"github.com/okian/talentflow/internal/domain/selection"
	"github.com/okian/talentflow/internal/domain/sequence"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/okian/talentflow/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/okian/talentflow/internal/domain/outreach"

	defaultTransportTimeout = 10 * time.Second
	defaultBulkConcurrency  = 8
)

// Engine runs outreach operations against a store and a transport.
// It is safe for concurrent use; operations on the same talent are
// serialized.
type Engine struct {
	store     repository.Store
	transport transport.Transport
	locks     *keyedMutex

	now    func() time.Time
	newID  func() string
	log    logger.Logger
	tracer trace.Tracer

	transportTimeout time.Duration
	bulkConcurrency  int
	contentLimit     int
	policy           sequence.Policy
	senderName       string
}

// New creates an Engine.
func New(store repository.Store, tr transport.Transport, opts ...Option) *Engine {
	e := &Engine{
		store:            store,
		transport:        tr,
		locks:            newKeyedMutex(),
		now:              time.Now,
		newID:            uuid.NewString,
		log:              logger.Get().Named("outreach"),
		tracer:           otel.Tracer(tracerName),
		transportTimeout: defaultTransportTimeout,
		bulkConcurrency:  defaultBulkConcurrency,
		contentLimit:     selection.DefaultContentLimit,
		policy:           sequence.Policy{Mode: sequence.ModeWait},
		senderName:       render.DefaultSenderName,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outcome is the result of one dispatch.
type Outcome struct {
	Decision sequence.Decision
	// Event is the recorded attempt, set only when a send was tried.
	Event *model.OutreachEvent
}

// Evaluate returns the sequencer decision for a (campaign, talent) pair at now.
func (e *Engine) Evaluate(ctx context.Context, campaignID, talentID string, now time.Time) (sequence.Decision, error) {
	c, err := e.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return sequence.Decision{}, err
	}
	return e.decide(ctx, &c, talentID, now)
}

func (e *Engine) decide(ctx context.Context, c *model.Campaign, talentID string, now time.Time) (sequence.Decision, error) {
	enr, err := e.store.GetEnrollment(ctx, c.ID, talentID)
	if err != nil {
		return sequence.Decision{}, err
	}
	history, err := e.store.CampaignHistory(ctx, c.ID, talentID)
	if err != nil {
		return sequence.Decision{}, fmt.Errorf("load history: %w", err)
	}
	return sequence.Next(sequence.Input{
		Steps:      c.Steps,
		History:    history,
		EnrolledAt: enr.EnrolledAt,
		Now:        now,
		Policy:     e.policy,
	})
}

// Process implements the worker pool's Processor. A consent denial or a
// paused campaign is an expected outcome of a scheduled pair and is not
// reported as a failure; the pair is evaluated again on the next tick.
func (e *Engine) Process(ctx context.Context, job model.Dispatch) error {
	_, err := e.Dispatch(ctx, job)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrCampaignInactive):
		e.log.Debug(ctx, "dispatch skipped",
			logger.String("campaign_id", job.CampaignID),
			logger.String("talent_id", job.TalentID),
			logger.Error(err),
		)
		return nil
	}
	return err
}

// Dispatch evaluates a pair and, when its next step is due, sends it.
func (e *Engine) Dispatch(ctx context.Context, job model.Dispatch) (out Outcome, err error) {
	ctx, span := e.tracer.Start(ctx, "outreach.Dispatch", trace.WithAttributes(
		attribute.String("campaign.id", job.CampaignID),
		attribute.String("talent.id", job.TalentID),
	))
	start := time.Now()
	defer func() {
		metrics.RecordDispatchLatency(float64(time.Since(start).Milliseconds()))
		endSpan(span, err)
	}()

	unlock := e.locks.Lock(job.TalentID)
	defer unlock()

	now := e.now()
	c, err := e.store.GetCampaign(ctx, job.CampaignID)
	if err != nil {
		return Outcome{}, err
	}
	if c.Status != model.CampaignActive {
		return Outcome{}, fmt.Errorf("%w: %s is %s", ErrCampaignInactive, c.ID, c.Status)
	}

	dec, err := e.decide(ctx, &c, job.TalentID, now)
	if err != nil {
		return Outcome{}, err
	}
	out.Decision = dec
	metrics.RecordDecision(string(dec.Kind))
	span.SetAttributes(attribute.String("decision", string(dec.Kind)))

	if !dec.Ready() {
		e.log.Debug(ctx, "no step to send",
			logger.String("campaign_id", c.ID),
			logger.String("talent_id", job.TalentID),
			logger.String("decision", string(dec.Kind)),
			logger.Int("step", dec.Step.Order),
		)
		return out, nil
	}

	t, err := e.store.GetTalent(ctx, job.TalentID)
	if err != nil {
		return out, err
	}

	step := dec.Step
	tpl, err := e.template(ctx, step.TemplateID)
	if err != nil {
		return out, err
	}
	msg, err := e.compose(ctx, &t, tpl, render.ToneFormal, true, true)
	if err != nil {
		return out, err
	}

	ev := model.OutreachEvent{
		ID:                   e.newID(),
		TalentID:             t.ID,
		CampaignID:           c.ID,
		TemplateID:           step.TemplateID,
		StepOrder:            step.Order,
		Channel:              pickChannel(step.Channel, c.Channel, t.CommunicationPreference),
		Subject:              msg.Result.Subject,
		Body:                 msg.Result.Body,
		PersonalizedElements: msg.Result.Elements(),
		CreatedAt:            now,
	}

	// The campaign may have been paused while this job waited or rendered.
	if c, err = e.store.GetCampaign(ctx, c.ID); err != nil {
		return out, err
	}
	if c.Status != model.CampaignActive {
		return out, fmt.Errorf("%w: %s is %s", ErrCampaignInactive, c.ID, c.Status)
	}

	recorded, err := e.deliver(ctx, ev)
	if recorded != nil {
		out.Event = recorded
	}
	return out, err
}

// template loads a template by ID. Unknown IDs fall back to the built-in
// default body.
func (e *Engine) template(ctx context.Context, id string) (*model.MessageTemplate, error) {
	if id == "" {
		return nil, nil
	}
	tpl, err := e.store.GetTemplate(ctx, id)
	if errors.Is(err, repository.ErrTemplateNotFound) {
		e.log.Warn(ctx, "template not found, using default body", logger.String("template_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

type composed struct {
	Result    render.Result
	Content   []model.ContentPiece
	Challenge *model.Challenge
}

// compose selects supporting content and renders tpl for t.
func (e *Engine) compose(ctx context.Context, t *model.Talent, tpl *model.MessageTemplate, tone render.Tone, withContent, withChallenge bool) (composed, error) {
	var out composed
	if withContent {
		pool, err := e.store.ListContent(ctx)
		if err != nil {
			return out, fmt.Errorf("load content: %w", err)
		}
		out.Content = selection.Content(t, pool, e.contentLimit)
	}
	if withChallenge {
		pool, err := e.store.ListChallenges(ctx)
		if err != nil {
			return out, fmt.Errorf("load challenges: %w", err)
		}
		if ch, ok := selection.Challenge(t, pool); ok {
			out.Challenge = &ch
		}
	}
	out.Result = render.Render(tpl, render.Input{
		Talent:     t,
		Content:    out.Content,
		Challenge:  out.Challenge,
		Tone:       tone,
		SenderName: e.senderName,
	})
	return out, nil
}

// deliver runs the consent gate on a fresh read of the talent, calls the
// transport and records the attempt. The caller holds the talent lock.
// The returned event is nil when nothing was recorded.
func (e *Engine) deliver(ctx context.Context, ev model.OutreachEvent) (*model.OutreachEvent, error) {
	t, err := e.store.GetTalent(ctx, ev.TalentID)
	if err != nil {
		return nil, err
	}
	if v := consent.Authorize(&t); !v.Allowed {
		metrics.RecordDenial(v.Reason)
		e.log.Info(ctx, "outreach blocked",
			logger.String("talent_id", t.ID),
			logger.String("campaign_id", ev.CampaignID),
			logger.String("reason", v.Reason),
		)
		return nil, &AuthorizationError{TalentID: t.ID, Reason: v.Reason}
	}

	msg := transport.Message{
		EventID:  ev.ID,
		TalentID: t.ID,
		Channel:  ev.Channel,
		Address:  t.Address(ev.Channel),
		Subject:  ev.Subject,
		Body:     ev.Body,
	}
	if err := e.send(ctx, msg); err != nil {
		metrics.RecordSend(string(ev.Channel), "failed")
		ev.Status = model.StatusFailed
		ev.Error = err.Error()
		if aerr := e.store.AppendEvent(ctx, ev); aerr != nil {
			e.log.Error(ctx, "failed to record failed send",
				logger.String("event_id", ev.ID),
				logger.Error(aerr),
			)
			return nil, errors.Join(err, aerr)
		}
		e.log.Warn(ctx, "outreach send failed",
			logger.String("event_id", ev.ID),
			logger.String("talent_id", t.ID),
			logger.String("channel", string(ev.Channel)),
			logger.Error(err),
		)
		return &ev, err
	}

	now := e.now()
	sentAt := now
	ev.Status = model.StatusSent
	ev.SentAt = &sentAt

	rec := repository.SendRecord{
		Event: ev,
		Touch: func(t *model.Talent) { funnel.MarkContacted(t, now) },
		Activity: &model.Activity{
			ID:       e.newID(),
			TalentID: t.ID,
			Type:     model.ActivityOutreachSent,
			Details: map[string]string{
				"channel":     string(ev.Channel),
				"campaign_id": ev.CampaignID,
				"event_id":    ev.ID,
			},
			CreatedAt: now,
		},
	}
	if ev.CampaignID != "" {
		rec.Counters = model.Counters{Sent: 1}
	}
	if _, err := e.store.CommitSend(ctx, rec); err != nil {
		return nil, fmt.Errorf("record send %s: %w", ev.ID, err)
	}

	metrics.RecordSend(string(ev.Channel), "sent")
	e.log.Info(ctx, "outreach sent",
		logger.String("event_id", ev.ID),
		logger.String("talent_id", t.ID),
		logger.String("campaign_id", ev.CampaignID),
		logger.Int("step", ev.StepOrder),
		logger.String("channel", string(ev.Channel)),
	)
	return &ev, nil
}

func (e *Engine) send(ctx context.Context, msg transport.Message) error {
	ctx, span := e.tracer.Start(ctx, "outreach.transport", trace.WithAttributes(
		attribute.String("channel", string(msg.Channel)),
		attribute.String("event.id", msg.EventID),
	))
	ctx, cancel := context.WithTimeout(ctx, e.transportTimeout)
	defer cancel()

	start := time.Now()
	err := e.transport.Send(ctx, msg)
	metrics.RecordTransportLatency(float64(time.Since(start).Milliseconds()))
	err = transport.Wrap(msg.Channel, err)
	endSpan(span, err)
	return err
}

// pickChannel returns the first valid channel, defaulting to email.
func pickChannel(candidates ...model.Channel) model.Channel {
	for _, c := range candidates {
		if c.Valid() {
			return c
		}
	}
	return model.ChannelEmail
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
