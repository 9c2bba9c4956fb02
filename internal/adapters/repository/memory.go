package repository

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
)

// MemoryStore is a mutex-guarded, in-process Store. Values are copied on the
// way in and out so callers never share slices with the store.
type MemoryStore struct {
	mu sync.RWMutex

	talents     map[string]model.Talent
	campaigns   map[string]model.Campaign
	enrollments map[string]map[string]model.Enrollment // campaign -> talent
	events      []model.OutreachEvent
	eventIdx    map[string]int
	templates   map[string]model.MessageTemplate
	content     map[string]model.ContentPiece
	challenges  map[string]model.Challenge
	consents    map[string][]model.ConsentRecord
	activities  map[string][]model.Activity
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store with optional preloaded data.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		talents:     make(map[string]model.Talent),
		campaigns:   make(map[string]model.Campaign),
		enrollments: make(map[string]map[string]model.Enrollment),
		eventIdx:    make(map[string]int),
		templates:   make(map[string]model.MessageTemplate),
		content:     make(map[string]model.ContentPiece),
		challenges:  make(map[string]model.Challenge),
		consents:    make(map[string][]model.ConsentRecord),
		activities:  make(map[string][]model.Activity),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// GetTalent implements TalentStore.
func (s *MemoryStore) GetTalent(ctx context.Context, id string) (model.Talent, error) {
	if err := ctx.Err(); err != nil {
		return model.Talent{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.talents[id]
	if !ok {
		return model.Talent{}, ErrTalentNotFound
	}
	return cloneTalent(t), nil
}

// SaveTalent implements TalentStore.
func (s *MemoryStore) SaveTalent(ctx context.Context, t model.Talent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.talents[t.ID] = cloneTalent(t)
	return nil
}

// UpdateTalent implements TalentStore.
func (s *MemoryStore) UpdateTalent(ctx context.Context, id string, mutate func(*model.Talent) error) (model.Talent, error) {
	if err := ctx.Err(); err != nil {
		return model.Talent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.talents[id]
	if !ok {
		return model.Talent{}, ErrTalentNotFound
	}
	t = cloneTalent(t)
	if err := mutate(&t); err != nil {
		return model.Talent{}, err
	}
	s.talents[id] = t
	return cloneTalent(t), nil
}

// GetCampaign implements CampaignStore.
func (s *MemoryStore) GetCampaign(ctx context.Context, id string) (model.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return model.Campaign{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return model.Campaign{}, ErrCampaignNotFound
	}
	return cloneCampaign(c), nil
}

// SaveCampaign implements CampaignStore.
func (s *MemoryStore) SaveCampaign(ctx context.Context, c model.Campaign) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = cloneCampaign(c)
	return nil
}

// ListActiveCampaigns implements CampaignStore. Results are ordered by ID.
func (s *MemoryStore) ListActiveCampaigns(ctx context.Context) ([]model.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Campaign
	for _, c := range s.campaigns {
		if c.Status == model.CampaignActive {
			out = append(out, cloneCampaign(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// IncrementCounters implements CampaignStore.
func (s *MemoryStore) IncrementCounters(ctx context.Context, id string, delta model.Counters) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incrementLocked(id, delta)
}

func (s *MemoryStore) incrementLocked(id string, delta model.Counters) error {
	c, ok := s.campaigns[id]
	if !ok {
		return ErrCampaignNotFound
	}
	c.Counters = c.Counters.Add(delta)
	s.campaigns[id] = c
	return nil
}

// Enroll implements CampaignStore. Re-enrolling keeps the original date.
func (s *MemoryStore) Enroll(ctx context.Context, e model.Enrollment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[e.CampaignID]; !ok {
		return ErrCampaignNotFound
	}
	if _, ok := s.talents[e.TalentID]; !ok {
		return ErrTalentNotFound
	}
	s.enroll(e)
	return nil
}

func (s *MemoryStore) enroll(e model.Enrollment) {
	byTalent, ok := s.enrollments[e.CampaignID]
	if !ok {
		byTalent = make(map[string]model.Enrollment)
		s.enrollments[e.CampaignID] = byTalent
	}
	if _, exists := byTalent[e.TalentID]; !exists {
		byTalent[e.TalentID] = e
	}
}

// GetEnrollment implements CampaignStore.
func (s *MemoryStore) GetEnrollment(ctx context.Context, campaignID, talentID string) (model.Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return model.Enrollment{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enrollments[campaignID][talentID]
	if !ok {
		return model.Enrollment{}, ErrEnrollmentNotFound
	}
	return e, nil
}

// ListEnrollments implements CampaignStore. Results are ordered by talent ID.
func (s *MemoryStore) ListEnrollments(ctx context.Context, campaignID string) ([]model.Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Enrollment, 0, len(s.enrollments[campaignID]))
	for _, e := range s.enrollments[campaignID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TalentID < out[j].TalentID })
	return out, nil
}

// AppendEvent implements Ledger.
func (s *MemoryStore) AppendEvent(ctx context.Context, ev model.OutreachEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(ev)
}

func (s *MemoryStore) appendLocked(ev model.OutreachEvent) error {
	if ev.ID == "" {
		return ErrMissingID
	}
	if _, dup := s.eventIdx[ev.ID]; dup {
		return ErrDuplicateEvent
	}
	s.eventIdx[ev.ID] = len(s.events)
	s.events = append(s.events, cloneEvent(ev))
	return nil
}

// dropEventLocked undoes the appendLocked that added id last.
func (s *MemoryStore) dropEventLocked(id string) {
	i, ok := s.eventIdx[id]
	if !ok || i != len(s.events)-1 {
		return
	}
	delete(s.eventIdx, id)
	s.events = s.events[:i]
}

// GetEvent implements Ledger.
func (s *MemoryStore) GetEvent(ctx context.Context, id string) (model.OutreachEvent, error) {
	if err := ctx.Err(); err != nil {
		return model.OutreachEvent{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.eventIdx[id]
	if !ok {
		return model.OutreachEvent{}, ErrEventNotFound
	}
	return cloneEvent(s.events[i]), nil
}

// History implements Ledger.
func (s *MemoryStore) History(ctx context.Context, talentID string) ([]model.OutreachEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.OutreachEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].TalentID == talentID {
			out = append(out, cloneEvent(s.events[i]))
		}
	}
	return out, nil
}

// CampaignHistory implements Ledger.
func (s *MemoryStore) CampaignHistory(ctx context.Context, campaignID, talentID string) ([]model.OutreachEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.OutreachEvent
	for i := range s.events {
		if s.events[i].TalentID == talentID && s.events[i].CampaignID == campaignID {
			out = append(out, cloneEvent(s.events[i]))
		}
	}
	return out, nil
}

// UpdateEvent implements Ledger.
func (s *MemoryStore) UpdateEvent(ctx context.Context, id string, mutate func(*model.OutreachEvent) (model.Counters, error)) (model.OutreachEvent, error) {
	if err := ctx.Err(); err != nil {
		return model.OutreachEvent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.eventIdx[id]
	if !ok {
		return model.OutreachEvent{}, ErrEventNotFound
	}
	ev := cloneEvent(s.events[i])
	delta, err := mutate(&ev)
	if err != nil {
		return model.OutreachEvent{}, err
	}
	if ev.CampaignID != "" && delta != (model.Counters{}) {
		if err := s.incrementLocked(ev.CampaignID, delta); err != nil {
			return model.OutreachEvent{}, err
		}
	}
	ev.ID = id
	s.events[i] = ev
	return cloneEvent(ev), nil
}

// GetTemplate implements Catalog.
func (s *MemoryStore) GetTemplate(ctx context.Context, id string) (model.MessageTemplate, error) {
	if err := ctx.Err(); err != nil {
		return model.MessageTemplate{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return model.MessageTemplate{}, ErrTemplateNotFound
	}
	t.Variables = slices.Clone(t.Variables)
	return t, nil
}

// ListTemplates implements Catalog. Results are ordered by ID.
func (s *MemoryStore) ListTemplates(ctx context.Context) ([]model.MessageTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MessageTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		t.Variables = slices.Clone(t.Variables)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListContent implements Catalog. Results are ordered by ID.
func (s *MemoryStore) ListContent(ctx context.Context) ([]model.ContentPiece, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ContentPiece, 0, len(s.content))
	for _, c := range s.content {
		c.SAPModules = slices.Clone(c.SAPModules)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListChallenges implements Catalog. Results are ordered by ID.
func (s *MemoryStore) ListChallenges(ctx context.Context) ([]model.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Challenge, 0, len(s.challenges))
	for _, c := range s.challenges {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveTemplate implements Catalog.
func (s *MemoryStore) SaveTemplate(ctx context.Context, t model.MessageTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Variables = slices.Clone(t.Variables)
	s.templates[t.ID] = t
	return nil
}

// SaveContent implements Catalog.
func (s *MemoryStore) SaveContent(ctx context.Context, c model.ContentPiece) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.SAPModules = slices.Clone(c.SAPModules)
	s.content[c.ID] = c
	return nil
}

// SaveChallenge implements Catalog.
func (s *MemoryStore) SaveChallenge(ctx context.Context, c model.Challenge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[c.ID] = c
	return nil
}

// AppendActivity implements AuditLog.
func (s *MemoryStore) AppendActivity(ctx context.Context, a model.Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[a.TalentID] = append(s.activities[a.TalentID], cloneActivity(a))
	return nil
}

// Activities implements AuditLog. Oldest first.
func (s *MemoryStore) Activities(ctx context.Context, talentID string) ([]model.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Activity, 0, len(s.activities[talentID]))
	for _, a := range s.activities[talentID] {
		out = append(out, cloneActivity(a))
	}
	return out, nil
}

// ConsentHistory implements AuditLog. Oldest first.
func (s *MemoryStore) ConsentHistory(ctx context.Context, talentID string) ([]model.ConsentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.consents[talentID]), nil
}

// CommitSend implements Store. Nothing is written unless every part succeeds.
func (s *MemoryStore) CommitSend(ctx context.Context, rec SendRecord) (model.Talent, error) {
	if err := ctx.Err(); err != nil {
		return model.Talent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.talents[rec.Event.TalentID]
	if !ok {
		return model.Talent{}, ErrTalentNotFound
	}
	if rec.Event.ID == "" {
		return model.Talent{}, ErrMissingID
	}
	if _, dup := s.eventIdx[rec.Event.ID]; dup {
		return model.Talent{}, ErrDuplicateEvent
	}
	campaignID := rec.Event.CampaignID
	if campaignID != "" {
		if _, ok := s.campaigns[campaignID]; !ok {
			return model.Talent{}, ErrCampaignNotFound
		}
	}

	t = cloneTalent(t)
	if rec.Touch != nil {
		rec.Touch(&t)
	}
	if err := s.appendLocked(rec.Event); err != nil {
		return model.Talent{}, err
	}
	if campaignID != "" {
		if err := s.incrementLocked(campaignID, rec.Counters); err != nil {
			s.dropEventLocked(rec.Event.ID)
			return model.Talent{}, err
		}
	}
	s.talents[t.ID] = t
	if rec.Activity != nil {
		s.activities[t.ID] = append(s.activities[t.ID], cloneActivity(*rec.Activity))
	}
	return cloneTalent(t), nil
}

// CommitConsent implements Store.
func (s *MemoryStore) CommitConsent(ctx context.Context, ch ConsentChange) (model.Talent, error) {
	if err := ctx.Err(); err != nil {
		return model.Talent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.talents[ch.TalentID]
	if !ok {
		return model.Talent{}, ErrTalentNotFound
	}
	t = cloneTalent(t)
	if ch.Apply != nil {
		ch.Apply(&t)
	}
	s.talents[t.ID] = t
	s.consents[t.ID] = append(s.consents[t.ID], ch.Record)
	return cloneTalent(t), nil
}

func cloneTalent(t model.Talent) model.Talent {
	t.SAPModules = slices.Clone(t.SAPModules)
	t.ConsentDate = cloneTime(t.ConsentDate)
	t.LastContactedAt = cloneTime(t.LastContactedAt)
	return t
}

func cloneCampaign(c model.Campaign) model.Campaign {
	c.TargetExperienceLevels = slices.Clone(c.TargetExperienceLevels)
	c.TargetSAPModules = slices.Clone(c.TargetSAPModules)
	c.TargetLocations = slices.Clone(c.TargetLocations)
	c.Steps = slices.Clone(c.Steps)
	return c
}

func cloneEvent(ev model.OutreachEvent) model.OutreachEvent {
	ev.PersonalizedElements = slices.Clone(ev.PersonalizedElements)
	ev.SentAt = cloneTime(ev.SentAt)
	ev.DeliveredAt = cloneTime(ev.DeliveredAt)
	ev.OpenedAt = cloneTime(ev.OpenedAt)
	ev.RespondedAt = cloneTime(ev.RespondedAt)
	return ev
}

func cloneActivity(a model.Activity) model.Activity {
	a.Details = maps.Clone(a.Details)
	return a
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
