package repository

import "github.com/okian/talentflow/internal/domain/model"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithTalents preloads talents.
func WithTalents(ts ...model.Talent) Option {
	return func(s *MemoryStore) {
		for _, t := range ts {
			s.talents[t.ID] = cloneTalent(t)
		}
	}
}

// WithCampaigns preloads campaigns.
func WithCampaigns(cs ...model.Campaign) Option {
	return func(s *MemoryStore) {
		for _, c := range cs {
			s.campaigns[c.ID] = cloneCampaign(c)
		}
	}
}

// WithEnrollments preloads enrollments.
func WithEnrollments(es ...model.Enrollment) Option {
	return func(s *MemoryStore) {
		for _, e := range es {
			s.enroll(e)
		}
	}
}

// WithTemplates preloads message templates.
func WithTemplates(ts ...model.MessageTemplate) Option {
	return func(s *MemoryStore) {
		for _, t := range ts {
			s.templates[t.ID] = t
		}
	}
}

// WithContent preloads content pieces.
func WithContent(cs ...model.ContentPiece) Option {
	return func(s *MemoryStore) {
		for _, c := range cs {
			s.content[c.ID] = c
		}
	}
}

// WithChallenges preloads challenges.
func WithChallenges(cs ...model.Challenge) Option {
	return func(s *MemoryStore) {
		for _, c := range cs {
			s.challenges[c.ID] = c
		}
	}
}
