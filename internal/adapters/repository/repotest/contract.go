// Package repotest holds behavior tests shared by every repository.Store
// implementation.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Base is the reference time used by fixtures.
var Base = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

// Talent returns a fixture talent.
func Talent(id string) model.Talent {
	return model.Talent{
		ID:              id,
		FullName:        "Talent " + id,
		Email:           id + "@example.com",
		ExperienceLevel: model.LevelExperienced,
		SAPModules:      []string{"SAP BTP"},
		Source:          "github",
		FunnelStage:     model.StageDiscovered,
		ConsentStatus:   model.ConsentGranted,
		CreatedAt:       Base,
		UpdatedAt:       Base,
	}
}

// Campaign returns a fixture active campaign with two steps.
func Campaign(id string) model.Campaign {
	return model.Campaign{
		ID:      id,
		Name:    "Campaign " + id,
		Status:  model.CampaignActive,
		Channel: model.ChannelEmail,
		Steps: []model.CampaignStep{
			{Order: 1, Name: "intro", Channel: model.ChannelEmail, TemplateID: "tpl-1"},
			{Order: 2, Name: "follow", Channel: model.ChannelEmail, DelayDays: 3, Condition: model.ConditionNoResponse},
		},
		CreatedAt: Base,
		UpdatedAt: Base,
	}
}

// Event returns a fixture sent event.
func Event(id, campaignID, talentID string, order int, at time.Time) model.OutreachEvent {
	sent := at
	return model.OutreachEvent{
		ID:                   id,
		TalentID:             talentID,
		CampaignID:           campaignID,
		StepOrder:            order,
		Channel:              model.ChannelEmail,
		Subject:              "hi",
		Body:                 "body",
		PersonalizedElements: []string{"preferredName"},
		Status:               model.StatusSent,
		SentAt:               &sent,
		CreatedAt:            at,
	}
}

// RunContract exercises open() against the Store behavior the engine
// relies on. open must return an empty store.
func RunContract(t *testing.T, open func() repository.Store) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := open()
		Reset(func() { _ = s.Close() })

		Convey("Then lookups should report typed not-found errors", func() {
			_, err := s.GetTalent(ctx, "nope")
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			So(errors.Is(err, repository.ErrTalentNotFound), ShouldBeTrue)

			_, err = s.GetCampaign(ctx, "nope")
			So(errors.Is(err, repository.ErrCampaignNotFound), ShouldBeTrue)

			_, err = s.GetEvent(ctx, "nope")
			So(errors.Is(err, repository.ErrEventNotFound), ShouldBeTrue)

			_, err = s.GetTemplate(ctx, "nope")
			So(errors.Is(err, repository.ErrTemplateNotFound), ShouldBeTrue)

			_, err = s.GetEnrollment(ctx, "c", "t")
			So(errors.Is(err, repository.ErrEnrollmentNotFound), ShouldBeTrue)
		})

		Convey("When a talent is saved", func() {
			talent := Talent("t1")
			So(s.SaveTalent(ctx, talent), ShouldBeNil)

			Convey("Then it should round-trip", func() {
				got, err := s.GetTalent(ctx, "t1")
				So(err, ShouldBeNil)
				So(got.FullName, ShouldEqual, talent.FullName)
				So(got.SAPModules, ShouldResemble, talent.SAPModules)
				So(got.FunnelStage, ShouldEqual, model.StageDiscovered)
				So(got.CreatedAt.Equal(Base), ShouldBeTrue)
				So(got.LastContactedAt, ShouldBeNil)
			})

			Convey("Then UpdateTalent should apply the patch", func() {
				got, err := s.UpdateTalent(ctx, "t1", func(t *model.Talent) error {
					t.FunnelStage = model.StageScreening
					return nil
				})
				So(err, ShouldBeNil)
				So(got.FunnelStage, ShouldEqual, model.StageScreening)

				again, _ := s.GetTalent(ctx, "t1")
				So(again.FunnelStage, ShouldEqual, model.StageScreening)
			})

			Convey("Then a failing patch should leave the talent untouched", func() {
				boom := errors.New("boom")
				_, err := s.UpdateTalent(ctx, "t1", func(t *model.Talent) error {
					t.FunnelStage = model.StageHired
					return boom
				})
				So(errors.Is(err, boom), ShouldBeTrue)

				again, _ := s.GetTalent(ctx, "t1")
				So(again.FunnelStage, ShouldEqual, model.StageDiscovered)
			})
		})

		Convey("When campaigns and enrollments are saved", func() {
			So(s.SaveTalent(ctx, Talent("t1")), ShouldBeNil)
			So(s.SaveTalent(ctx, Talent("t2")), ShouldBeNil)
			So(s.SaveCampaign(ctx, Campaign("c1")), ShouldBeNil)
			paused := Campaign("c2")
			paused.Status = model.CampaignPaused
			So(s.SaveCampaign(ctx, paused), ShouldBeNil)

			So(s.Enroll(ctx, model.Enrollment{CampaignID: "c1", TalentID: "t2", EnrolledAt: Base}), ShouldBeNil)
			So(s.Enroll(ctx, model.Enrollment{CampaignID: "c1", TalentID: "t1", EnrolledAt: Base}), ShouldBeNil)
			So(s.Enroll(ctx, model.Enrollment{CampaignID: "c1", TalentID: "t1", EnrolledAt: Base.Add(time.Hour)}), ShouldBeNil)

			Convey("Then only active campaigns should be listed", func() {
				active, err := s.ListActiveCampaigns(ctx)
				So(err, ShouldBeNil)
				So(active, ShouldHaveLength, 1)
				So(active[0].ID, ShouldEqual, "c1")
				So(active[0].Steps, ShouldHaveLength, 2)
				So(active[0].Steps[1].Condition, ShouldEqual, model.ConditionNoResponse)
			})

			Convey("Then enrollments should be listed by talent and keep the first date", func() {
				list, err := s.ListEnrollments(ctx, "c1")
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 2)
				So(list[0].TalentID, ShouldEqual, "t1")
				So(list[0].EnrolledAt.Equal(Base), ShouldBeTrue)
			})

			Convey("Then enrolling an unknown talent should fail", func() {
				err := s.Enroll(ctx, model.Enrollment{CampaignID: "c1", TalentID: "ghost", EnrolledAt: Base})
				So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then counters should only grow", func() {
				So(s.IncrementCounters(ctx, "c1", model.Counters{Sent: 2, Opened: 1}), ShouldBeNil)
				So(s.IncrementCounters(ctx, "c1", model.Counters{Sent: -5}), ShouldBeNil)
				c, _ := s.GetCampaign(ctx, "c1")
				So(c.Counters.Sent, ShouldEqual, 2)
				So(c.Counters.Opened, ShouldEqual, 1)

				err := s.IncrementCounters(ctx, "ghost", model.Counters{Sent: 1})
				So(errors.Is(err, repository.ErrCampaignNotFound), ShouldBeTrue)
			})
		})

		Convey("When events are appended", func() {
			So(s.SaveTalent(ctx, Talent("t1")), ShouldBeNil)
			So(s.SaveCampaign(ctx, Campaign("c1")), ShouldBeNil)
			So(s.AppendEvent(ctx, Event("e1", "c1", "t1", 1, Base)), ShouldBeNil)
			So(s.AppendEvent(ctx, Event("e2", "", "t1", 0, Base.Add(time.Hour))), ShouldBeNil)
			So(s.AppendEvent(ctx, Event("e3", "c1", "t1", 2, Base.Add(2*time.Hour))), ShouldBeNil)

			Convey("Then history should be newest first", func() {
				h, err := s.History(ctx, "t1")
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 3)
				So(h[0].ID, ShouldEqual, "e3")
				So(h[2].ID, ShouldEqual, "e1")
				So(h[2].PersonalizedElements, ShouldResemble, []string{"preferredName"})
			})

			Convey("Then campaign history should be oldest first and scoped", func() {
				h, err := s.CampaignHistory(ctx, "c1", "t1")
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 2)
				So(h[0].ID, ShouldEqual, "e1")
				So(h[0].SentAt.Equal(Base), ShouldBeTrue)
			})

			Convey("Then duplicate IDs should be rejected", func() {
				err := s.AppendEvent(ctx, Event("e1", "c1", "t1", 1, Base))
				So(errors.Is(err, repository.ErrDuplicateEvent), ShouldBeTrue)
			})

			Convey("Then UpdateEvent should change status and counters together", func() {
				ev, err := s.UpdateEvent(ctx, "e1", func(ev *model.OutreachEvent) (model.Counters, error) {
					at := Base.Add(time.Minute)
					ev.Status = model.StatusOpened
					ev.OpenedAt = &at
					return model.Counters{Opened: 1}, nil
				})
				So(err, ShouldBeNil)
				So(ev.Status, ShouldEqual, model.StatusOpened)

				stored, _ := s.GetEvent(ctx, "e1")
				So(stored.Status, ShouldEqual, model.StatusOpened)
				So(stored.OpenedAt, ShouldNotBeNil)

				c, _ := s.GetCampaign(ctx, "c1")
				So(c.Counters.Opened, ShouldEqual, 1)
			})

			Convey("Then a rejected update should change nothing", func() {
				boom := errors.New("boom")
				_, err := s.UpdateEvent(ctx, "e1", func(ev *model.OutreachEvent) (model.Counters, error) {
					ev.Status = model.StatusResponded
					return model.Counters{Responded: 1}, boom
				})
				So(errors.Is(err, boom), ShouldBeTrue)

				stored, _ := s.GetEvent(ctx, "e1")
				So(stored.Status, ShouldEqual, model.StatusSent)
				c, _ := s.GetCampaign(ctx, "c1")
				So(c.Counters.Responded, ShouldEqual, 0)
			})
		})

		Convey("When the catalog is filled", func() {
			So(s.SaveTemplate(ctx, model.MessageTemplate{
				ID: "tpl-1", Name: "intro", Channel: model.ChannelEmail, Body: "Oi {{preferredName}}",
				Variables: []string{"preferredName"}, ExperienceLevel: model.LevelAll,
				Category: model.CategoryInitialOutreach, ResponseRate: 0.3,
			}), ShouldBeNil)
			So(s.SaveContent(ctx, model.ContentPiece{ID: "c1", Title: "Guide", SAPModules: []string{"SAP BTP"}, ExperienceLevel: model.LevelAll, EngagementCount: 5, IsAccentureAsset: true}), ShouldBeNil)
			So(s.SaveChallenge(ctx, model.Challenge{ID: "ch1", Title: "Sprint", Difficulty: model.LevelLead, TimeLimit: 20, IsActive: true, Completions: 3}), ShouldBeNil)

			Convey("Then it should be readable", func() {
				tpl, err := s.GetTemplate(ctx, "tpl-1")
				So(err, ShouldBeNil)
				So(tpl.Variables, ShouldResemble, []string{"preferredName"})
				So(tpl.ResponseRate, ShouldEqual, 0.3)

				tpls, _ := s.ListTemplates(ctx)
				So(tpls, ShouldHaveLength, 1)

				content, _ := s.ListContent(ctx)
				So(content, ShouldHaveLength, 1)
				So(content[0].IsAccentureAsset, ShouldBeTrue)
				So(content[0].SAPModules, ShouldResemble, []string{"SAP BTP"})

				challenges, _ := s.ListChallenges(ctx)
				So(challenges, ShouldHaveLength, 1)
				So(challenges[0].IsActive, ShouldBeTrue)
				So(challenges[0].TimeLimit, ShouldEqual, 20)
			})
		})

		Convey("When a send is committed", func() {
			So(s.SaveTalent(ctx, Talent("t1")), ShouldBeNil)
			So(s.SaveCampaign(ctx, Campaign("c1")), ShouldBeNil)

			talent, err := s.CommitSend(ctx, repository.SendRecord{
				Event: Event("e1", "c1", "t1", 1, Base),
				Touch: func(t *model.Talent) {
					at := Base
					t.FunnelStage = model.StageContacted
					t.LastContactedAt = &at
				},
				Counters: model.Counters{Sent: 1},
				Activity: &model.Activity{ID: "a1", TalentID: "t1", Type: model.ActivityOutreachSent, Details: map[string]string{"channel": "email"}, CreatedAt: Base},
			})

			Convey("Then every part should be visible", func() {
				So(err, ShouldBeNil)
				So(talent.FunnelStage, ShouldEqual, model.StageContacted)

				stored, _ := s.GetTalent(ctx, "t1")
				So(stored.LastContactedAt, ShouldNotBeNil)

				h, _ := s.History(ctx, "t1")
				So(h, ShouldHaveLength, 1)

				c, _ := s.GetCampaign(ctx, "c1")
				So(c.Counters.Sent, ShouldEqual, 1)

				acts, _ := s.Activities(ctx, "t1")
				So(acts, ShouldHaveLength, 1)
				So(acts[0].Details["channel"], ShouldEqual, "email")
			})

			Convey("Then a duplicate commit should write nothing", func() {
				_, err := s.CommitSend(ctx, repository.SendRecord{
					Event:    Event("e1", "c1", "t1", 1, Base),
					Counters: model.Counters{Sent: 1},
				})
				So(errors.Is(err, repository.ErrDuplicateEvent), ShouldBeTrue)

				c, _ := s.GetCampaign(ctx, "c1")
				So(c.Counters.Sent, ShouldEqual, 1)
			})

			Convey("Then a commit for an unknown campaign should write nothing", func() {
				_, err := s.CommitSend(ctx, repository.SendRecord{
					Event:    Event("e2", "ghost", "t1", 1, Base),
					Touch:    func(t *model.Talent) { t.FunnelStage = model.StageEngaged },
					Counters: model.Counters{Sent: 1},
					Activity: &model.Activity{ID: "a2", TalentID: "t1", Type: model.ActivityOutreachSent, CreatedAt: Base},
				})
				So(errors.Is(err, repository.ErrCampaignNotFound), ShouldBeTrue)

				_, err = s.GetEvent(ctx, "e2")
				So(errors.Is(err, repository.ErrEventNotFound), ShouldBeTrue)
				h, _ := s.History(ctx, "t1")
				So(h, ShouldHaveLength, 1)
				stored, _ := s.GetTalent(ctx, "t1")
				So(stored.FunnelStage, ShouldEqual, model.StageContacted)
				acts, _ := s.Activities(ctx, "t1")
				So(acts, ShouldHaveLength, 1)
			})

			Convey("Then a commit for an unknown talent should fail", func() {
				_, err := s.CommitSend(ctx, repository.SendRecord{Event: Event("e9", "c1", "ghost", 1, Base)})
				So(errors.Is(err, repository.ErrTalentNotFound), ShouldBeTrue)
			})
		})

		Convey("When consent changes are committed", func() {
			So(s.SaveTalent(ctx, Talent("t1")), ShouldBeNil)

			talent, err := s.CommitConsent(ctx, repository.ConsentChange{
				TalentID: "t1",
				Apply:    func(t *model.Talent) { t.ConsentStatus = model.ConsentRevoked },
				Record: model.ConsentRecord{
					ID: "r1", TalentID: "t1", Action: model.ConsentActionRevoke,
					Basis: "subject_request", Details: "asked", CreatedAt: Base,
				},
			})

			Convey("Then the talent and the log should agree", func() {
				So(err, ShouldBeNil)
				So(talent.ConsentStatus, ShouldEqual, model.ConsentRevoked)

				log, _ := s.ConsentHistory(ctx, "t1")
				So(log, ShouldHaveLength, 1)
				So(log[0].Action, ShouldEqual, model.ConsentActionRevoke)
				So(log[0].CreatedAt.Equal(Base), ShouldBeTrue)
			})
		})
	})
}
