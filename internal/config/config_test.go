package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/talentflow/internal/config"
	"github.com/okian/talentflow/internal/domain/sequence"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.StorageDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.TickInterval(), convey.ShouldEqual, time.Minute)
			convey.So(cfg.TransportTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the policy defaults to waiting", func() {
			p, err := cfg.Policy()
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Mode, convey.ShouldEqual, sequence.ModeWait)
			convey.So(p.Expiry, convey.ShouldEqual, 14*24*time.Hour)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with bad values", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero queue", func(c *config.Config) { c.QueueSize = 0 }},
			{"zero tick", func(c *config.Config) { c.TickIntervalMS = 0 }},
			{"zero timeout", func(c *config.Config) { c.TransportTimeoutMS = 0 }},
			{"zero bulk", func(c *config.Config) { c.BulkConcurrency = 0 }},
			{"negative expiry", func(c *config.Config) { c.ConditionExpiryDays = -1 }},
			{"unknown policy", func(c *config.Config) { c.ConditionPolicy = "retry" }},
			{"unknown driver", func(c *config.Config) { c.StorageDriver = "postgres" }},
			{"sqlite without path", func(c *config.Config) { c.StorageDriver, c.SQLitePath = config.DriverSQLite, "" }},
			{"bad log format", func(c *config.Config) { c.LogFormat = "xml" }},
		}
		for _, tc := range cases {
			convey.Convey("When "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
