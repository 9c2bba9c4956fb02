package model_test

import (
	"testing"

	model "github.com/okian/talentflow/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestCounters(t *testing.T) {
	convey.Convey("Given campaign counters", t, func() {
		c := model.Counters{Sent: 3, Opened: 1}

		convey.Convey("When adding a delta", func() {
			got := c.Add(model.Counters{Sent: 2, Responded: 1})

			convey.Convey("Then the fields should grow", func() {
				convey.So(got.Sent, convey.ShouldEqual, 5)
				convey.So(got.Opened, convey.ShouldEqual, 1)
				convey.So(got.Responded, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When adding a negative delta", func() {
			got := c.Add(model.Counters{Sent: -10})

			convey.Convey("Then the counters should never decrease", func() {
				convey.So(got.Sent, convey.ShouldEqual, 3)
			})
		})
	})
}

func TestEventStatus(t *testing.T) {
	convey.Convey("Given event statuses", t, func() {
		convey.So(model.StatusSent.Reached(), convey.ShouldBeTrue)
		convey.So(model.StatusOpened.Reached(), convey.ShouldBeTrue)
		convey.So(model.StatusResponded.Reached(), convey.ShouldBeTrue)
		convey.So(model.StatusFailed.Reached(), convey.ShouldBeFalse)
		convey.So(model.StatusPending.Reached(), convey.ShouldBeFalse)
	})
}

func TestLevelsAndChannels(t *testing.T) {
	convey.Convey("Given experience levels", t, func() {
		convey.So(model.LevelLead.Valid(), convey.ShouldBeTrue)
		convey.So(model.LevelAll.Valid(), convey.ShouldBeFalse)
		convey.So(model.LevelAll.Matches(model.LevelEntry), convey.ShouldBeTrue)
		convey.So(model.LevelLead.Matches(model.LevelEntry), convey.ShouldBeFalse)
	})

	convey.Convey("Given a talent with contact details", t, func() {
		talent := model.Talent{ID: "t1", Email: "ana@example.com", Phone: "+55 11 99999-0000"}

		convey.So(talent.Address(model.ChannelEmail), convey.ShouldEqual, "ana@example.com")
		convey.So(talent.Address(model.ChannelWhatsApp), convey.ShouldEqual, "+55 11 99999-0000")
		convey.So(talent.Address(model.ChannelLinkedIn), convey.ShouldEqual, "")
		convey.So(model.Channel("fax").Valid(), convey.ShouldBeFalse)
	})

	convey.Convey("Given a dispatch job", t, func() {
		d := model.Dispatch{CampaignID: "c1", TalentID: "t1"}
		convey.So(d.Key(), convey.ShouldEqual, "c1/t1")
	})
}
