package service_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/talentflow/internal/adapters/repository"
	"github.com/okian/talentflow/internal/adapters/repository/repotest"
	"github.com/okian/talentflow/internal/adapters/transport"
	service "github.com/okian/talentflow/internal/app"
	"github.com/okian/talentflow/internal/config"
	"github.com/okian/talentflow/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type countingTransport struct {
	mu   sync.Mutex
	sent map[string]int
}

func (c *countingTransport) Send(_ context.Context, msg transport.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent[msg.TalentID]++
	return nil
}

func (c *countingTransport) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.sent {
		n += v
	}
	return n
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

const seedDoc = `
templates:
  - id: tpl-1
    channel: email
    subject: "Oi {{preferredName}}"
    body: "Temos vagas de {{sapModule}}"
    experience_level: all
    category: initial_outreach
talents:
  - id: ana
    full_name: Ana Souza
    email: ana@example.com
    experience_level: experienced
    sap_modules: [SAP FICO]
    consent_status: granted
campaigns:
  - id: drip
    name: FICO drip
    status: active
    channel: email
    steps:
      - {order: 1, name: intro, template_id: tpl-1}
      - {order: 2, name: follow, delay_days: 3, condition: no_response}
    enrollments:
      - talent_id: ana
`

func TestServiceIntegration(t *testing.T) {
	Convey("Given a running service over an enrolled campaign", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store := repository.NewMemoryStore(
			repository.WithTalents(repotest.Talent("t1"), repotest.Talent("t2")),
			repository.WithCampaigns(repotest.Campaign("c1")),
			repository.WithEnrollments(
				model.Enrollment{CampaignID: "c1", TalentID: "t1", EnrolledAt: repotest.Base},
				model.Enrollment{CampaignID: "c1", TalentID: "t2", EnrolledAt: repotest.Base},
			),
			repository.WithTemplates(model.MessageTemplate{
				ID: "tpl-1", Channel: model.ChannelEmail, Subject: "Oi", Body: "Vaga {{sapModule}}",
				ExperienceLevel: model.LevelAll, Category: model.CategoryInitialOutreach,
			}),
		)
		tr := &countingTransport{sent: map[string]int{}}
		svc := service.New(
			service.WithStore(store),
			service.WithTransport(tr),
			service.WithWorkerCount(4),
			service.WithTickInterval(time.Hour),
		)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(context.Background()) })

		Convey("When the first tick runs on start", func() {
			So(eventually(func() bool { return tr.total() == 2 }), ShouldBeTrue)

			Convey("Then each talent got the first step once and the campaign counted it", func() {
				h, err := store.History(ctx, "t1")
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 1)
				So(h[0].StepOrder, ShouldEqual, 1)

				c, err := store.GetCampaign(ctx, "c1")
				So(err, ShouldBeNil)
				So(c.Counters.Sent, ShouldEqual, int64(2))

				talent, err := store.GetTalent(ctx, "t1")
				So(err, ShouldBeNil)
				So(talent.FunnelStage, ShouldEqual, model.StageContacted)
			})

			Convey("And further ticks do not resend before the follow-up is due", func() {
				for i := 0; i < 5; i++ {
					_, err := svc.Tick(ctx)
					So(err, ShouldBeNil)
				}
				So(eventually(func() bool { return svc.GetStats()["inflight"] == int64(0) }), ShouldBeTrue)
				So(tr.total(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a running service with a revoked talent enrolled", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		revoked := repotest.Talent("t-revoked")
		revoked.ConsentStatus = model.ConsentRevoked
		store := repository.NewMemoryStore(
			repository.WithTalents(repotest.Talent("t1"), revoked),
			repository.WithCampaigns(repotest.Campaign("c1")),
			repository.WithEnrollments(
				model.Enrollment{CampaignID: "c1", TalentID: "t1", EnrolledAt: repotest.Base},
				model.Enrollment{CampaignID: "c1", TalentID: "t-revoked", EnrolledAt: repotest.Base},
			),
			repository.WithTemplates(model.MessageTemplate{
				ID: "tpl-1", Channel: model.ChannelEmail, Subject: "Oi", Body: "Vaga {{sapModule}}",
				ExperienceLevel: model.LevelAll, Category: model.CategoryInitialOutreach,
			}),
		)
		tr := &countingTransport{sent: map[string]int{}}
		svc := service.New(
			service.WithStore(store),
			service.WithTransport(tr),
			service.WithWorkerCount(2),
			service.WithTickInterval(time.Hour),
		)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(context.Background()) })

		Convey("When several ticks run", func() {
			So(eventually(func() bool { return tr.total() == 1 }), ShouldBeTrue)
			for i := 0; i < 3; i++ {
				_, err := svc.Tick(ctx)
				So(err, ShouldBeNil)
				So(eventually(func() bool { return svc.GetStats()["inflight"] == int64(0) }), ShouldBeTrue)
			}

			Convey("Then the denied pair never counts as a failed job", func() {
				So(svc.GetStats()["failedJobs"], ShouldEqual, int64(0))
				So(tr.total(), ShouldEqual, 1)
				h, err := store.History(ctx, "t-revoked")
				So(err, ShouldBeNil)
				So(h, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a service on sqlite loaded from a seed file", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dir := t.TempDir()
		seedPath := filepath.Join(dir, "seed.yaml")
		So(os.WriteFile(seedPath, []byte(seedDoc), 0o600), ShouldBeNil)

		tr := &countingTransport{sent: map[string]int{}}
		svc := service.New(
			service.WithStorage(config.DriverSQLite, filepath.Join(dir, "talentflow.db")),
			service.WithSeedPath(seedPath),
			service.WithTransport(tr),
			service.WithWorkerCount(2),
			service.WithTickInterval(time.Hour),
		)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(context.Background()) })

		Convey("Then the seeded talent is contacted through the pipeline", func() {
			So(eventually(func() bool { return tr.total() == 1 }), ShouldBeTrue)
			seeded := svc.GetStats()["seeded"].(map[string]int)
			So(seeded["talents"], ShouldEqual, 1)
			So(seeded["enrollments"], ShouldEqual, 1)

			h, err := svc.Engine().History(ctx, "ana")
			So(err, ShouldBeNil)
			So(h, ShouldHaveLength, 1)
			So(h[0].Subject, ShouldEqual, "Oi Ana")
		})
	})
}
