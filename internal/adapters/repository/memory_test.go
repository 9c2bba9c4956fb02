package repository_test

import (
	"context"
	"testing"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/adapters/repository/repotest"
	"github.com/okian/talentflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStoreContract(t *testing.T) {
	repotest.RunContract(t, func() repository.Store { return repository.NewMemoryStore() })
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store preloaded through options", t, func() {
		s := repository.NewMemoryStore(
			repository.WithTalents(repotest.Talent("t1")),
			repository.WithCampaigns(repotest.Campaign("c1")),
			repository.WithEnrollments(model.Enrollment{CampaignID: "c1", TalentID: "t1", EnrolledAt: repotest.Base}),
		)

		Convey("Then the data should be readable", func() {
			e, err := s.GetEnrollment(ctx, "c1", "t1")
			So(err, ShouldBeNil)
			So(e.EnrolledAt, ShouldEqual, repotest.Base)
		})

		Convey("When a caller mutates a returned talent", func() {
			got, _ := s.GetTalent(ctx, "t1")
			got.SAPModules[0] = "mutated"

			Convey("Then the stored copy should be unaffected", func() {
				again, _ := s.GetTalent(ctx, "t1")
				So(again.SAPModules[0], ShouldEqual, "SAP BTP")
			})
		})

		Convey("When a caller mutates returned campaign steps", func() {
			c, _ := s.GetCampaign(ctx, "c1")
			c.Steps[0].DelayDays = 99

			Convey("Then the stored steps should be unaffected", func() {
				again, _ := s.GetCampaign(ctx, "c1")
				So(again.Steps[0].DelayDays, ShouldEqual, 0)
			})
		})
	})
}
