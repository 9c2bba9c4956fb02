package sequence_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/sequence"
	. "github.com/smartystreets/goconvey/convey"
)

var enrolled = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func at(t time.Time) *time.Time { return &t }

func threeSteps() []model.CampaignStep {
	return []model.CampaignStep{
		{Order: 1, Name: "intro", Channel: model.ChannelEmail, DelayDays: 0},
		{Order: 2, Name: "follow up", Channel: model.ChannelEmail, DelayDays: 3, Condition: model.ConditionNoResponse},
		{Order: 3, Name: "nudge", Channel: model.ChannelLinkedIn, DelayDays: 7, Condition: model.ConditionOpenedNotResponded},
	}
}

func sent(order int, status model.EventStatus, when time.Time) model.OutreachEvent {
	return model.OutreachEvent{ID: "e", StepOrder: order, Status: status, SentAt: at(when), CreatedAt: when}
}

func TestNext(t *testing.T) {
	Convey("Given a fresh enrollment", t, func() {
		in := sequence.Input{Steps: threeSteps(), EnrolledAt: enrolled, Now: enrolled}

		Convey("Then step 1 should be ready immediately", func() {
			d, err := sequence.Next(in)
			So(err, ShouldBeNil)
			So(d.Kind, ShouldEqual, sequence.KindReady)
			So(d.Step.Order, ShouldEqual, 1)
			So(d.Ready(), ShouldBeTrue)
		})

		Convey("When step 1 carries a delay", func() {
			in.Steps[0].DelayDays = 2
			in.Now = enrolled.Add(days(1))

			Convey("Then it should not be due until the delay elapses", func() {
				d, err := sequence.Next(in)
				So(err, ShouldBeNil)
				So(d.Kind, ShouldEqual, sequence.KindNotYetDue)
				So(d.DueAt, ShouldEqual, enrolled.Add(days(2)))
			})
		})

		Convey("When step 1 only failed", func() {
			in.History = []model.OutreachEvent{{StepOrder: 1, Status: model.StatusFailed, CreatedAt: enrolled}}

			Convey("Then step 1 should be retried", func() {
				d, err := sequence.Next(in)
				So(err, ShouldBeNil)
				So(d.Step.Order, ShouldEqual, 1)
				So(d.Kind, ShouldEqual, sequence.KindReady)
			})
		})
	})

	Convey("Given step 1 was sent on day 0", t, func() {
		in := sequence.Input{
			Steps:      threeSteps(),
			EnrolledAt: enrolled,
			History:    []model.OutreachEvent{sent(1, model.StatusDelivered, enrolled)},
		}

		Convey("When evaluated on day 1", func() {
			in.Now = enrolled.Add(days(1))
			d, err := sequence.Next(in)

			Convey("Then step 2 should be due on day 3", func() {
				So(err, ShouldBeNil)
				So(d.Kind, ShouldEqual, sequence.KindNotYetDue)
				So(d.Step.Order, ShouldEqual, 2)
				So(d.DueAt, ShouldEqual, enrolled.Add(days(3)))
			})
		})

		Convey("When evaluated on day 3 without a response", func() {
			in.Now = enrolled.Add(days(3))
			d, err := sequence.Next(in)

			Convey("Then step 2 should be ready", func() {
				So(err, ShouldBeNil)
				So(d.Kind, ShouldEqual, sequence.KindReady)
				So(d.Step.Order, ShouldEqual, 2)
			})
		})

		Convey("When the talent responded", func() {
			in.History[0].Status = model.StatusResponded
			in.Now = enrolled.Add(days(4))
			d, err := sequence.Next(in)

			Convey("Then the no_response condition should not be met", func() {
				So(err, ShouldBeNil)
				So(d.Kind, ShouldEqual, sequence.KindConditionNotMet)
				So(d.Step.Order, ShouldEqual, 2)
			})

			Convey("And the policy abandons after expiry", func() {
				in.Policy = sequence.Policy{Mode: sequence.ModeAbandon, Expiry: days(1)}
				d, err := sequence.Next(in)

				Convey("Then the talent should be abandoned", func() {
					So(err, ShouldBeNil)
					So(d.Kind, ShouldEqual, sequence.KindAbandoned)
				})
			})

			Convey("And the policy abandons but expiry has not passed", func() {
				in.Policy = sequence.Policy{Mode: sequence.ModeAbandon, Expiry: days(5)}
				d, err := sequence.Next(in)

				So(err, ShouldBeNil)
				So(d.Kind, ShouldEqual, sequence.KindConditionNotMet)
			})
		})
	})

	Convey("Given steps 1 and 2 were sent", t, func() {
		day3 := enrolled.Add(days(3))
		in := sequence.Input{
			Steps:      threeSteps(),
			EnrolledAt: enrolled,
			History: []model.OutreachEvent{
				sent(1, model.StatusSent, enrolled),
				sent(2, model.StatusSent, day3),
			},
			Now: day3.Add(days(7)),
		}

		Convey("When nothing was opened", func() {
			d, err := sequence.Next(in)

			Convey("Then step 3 should wait for an open", func() {
				So(err, ShouldBeNil)
				So(d.Kind, ShouldEqual, sequence.KindConditionNotMet)
				So(d.Step.Order, ShouldEqual, 3)
				So(d.DueAt, ShouldEqual, day3.Add(days(7)))
			})
		})

		Convey("When step 2 was opened", func() {
			in.History[1].Status = model.StatusOpened
			d, err := sequence.Next(in)

			Convey("Then step 3 should be ready", func() {
				So(err, ShouldBeNil)
				So(d.Kind, ShouldEqual, sequence.KindReady)
				So(d.Step.Order, ShouldEqual, 3)
			})
		})

		Convey("When step 3 was sent as well", func() {
			in.History = append(in.History, sent(3, model.StatusSent, in.Now))
			d, err := sequence.Next(in)

			Convey("Then the campaign should be exhausted", func() {
				So(err, ShouldBeNil)
				So(d.Kind, ShouldEqual, sequence.KindExhausted)
			})
		})
	})

	Convey("Given ad-hoc events in the history", t, func() {
		in := sequence.Input{
			Steps:      threeSteps(),
			EnrolledAt: enrolled,
			Now:        enrolled,
			History:    []model.OutreachEvent{sent(0, model.StatusSent, enrolled)},
		}

		Convey("Then they should not count as completed steps", func() {
			d, err := sequence.Next(in)
			So(err, ShouldBeNil)
			So(d.Step.Order, ShouldEqual, 1)
		})
	})

	Convey("Given a campaign without steps", t, func() {
		d, err := sequence.Next(sequence.Input{EnrolledAt: enrolled, Now: enrolled})
		So(err, ShouldBeNil)
		So(d.Kind, ShouldEqual, sequence.KindExhausted)
	})
}

func TestValidateSteps(t *testing.T) {
	Convey("Given malformed steps", t, func() {
		cases := map[string][]model.CampaignStep{
			"gap":        {{Order: 1}, {Order: 3}},
			"duplicate":  {{Order: 1}, {Order: 1}},
			"zero order": {{Order: 0}},
			"negative":   {{Order: 1, DelayDays: -1}},
			"condition":  {{Order: 1, Condition: "replied_twice"}},
		}
		for name, steps := range cases {
			Convey("Then "+name+" should be rejected", func() {
				_, err := sequence.Next(sequence.Input{Steps: steps, Now: enrolled})
				So(errors.Is(err, sequence.ErrMalformedSteps), ShouldBeTrue)
				So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
			})
		}
	})

	Convey("Given steps out of order", t, func() {
		steps, err := sequence.ValidateSteps([]model.CampaignStep{{Order: 2}, {Order: 1}})

		Convey("Then they should be returned sorted", func() {
			So(err, ShouldBeNil)
			So(steps[0].Order, ShouldEqual, 1)
			So(steps[1].Order, ShouldEqual, 2)
		})
	})
}

func TestParseMode(t *testing.T) {
	Convey("Given configured policy names", t, func() {
		m, err := sequence.ParseMode("")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, sequence.ModeWait)

		m, err = sequence.ParseMode("abandon")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, sequence.ModeAbandon)

		_, err = sequence.ParseMode("skip")
		So(errors.Is(err, sequence.ErrInvalidPolicy), ShouldBeTrue)
	})
}
