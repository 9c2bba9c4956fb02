package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/talentflow/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"TALENTFLOW_CONFIG",
	"TALENTFLOW_ADDR",
	"TALENTFLOW_QUEUE_SIZE",
	"TALENTFLOW_WORKER_COUNT",
	"TALENTFLOW_STORAGE_DRIVER",
	"TALENTFLOW_SQLITE_PATH",
	"TALENTFLOW_CONDITION_POLICY",
	"TALENTFLOW_TICK_INTERVAL_MS",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	f, err := os.CreateTemp(t.TempDir(), "talentflow-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	return f.Name()
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.StorageDriver, convey.ShouldEqual, "memory")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TALENTFLOW_ADDR", ":8080")
			_ = os.Setenv("TALENTFLOW_QUEUE_SIZE", "500")
			_ = os.Setenv("TALENTFLOW_STORAGE_DRIVER", "sqlite")
			_ = os.Setenv("TALENTFLOW_CONDITION_POLICY", "abandon")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.StorageDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.ConditionPolicy, convey.ShouldEqual, "abandon")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
queue_size: 300
worker_count: 24
sender_name: "Time SAP"
`)
			_ = os.Setenv("TALENTFLOW_CONFIG", path)
			_ = os.Setenv("TALENTFLOW_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should override the file and the file the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.SenderName, convey.ShouldEqual, "Time SAP")
				convey.So(cfg.TickIntervalMS, convey.ShouldEqual, 60_000)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("TALENTFLOW_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TALENTFLOW_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TALENTFLOW_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("TALENTFLOW_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the condition policy is unknown", func() {
			_ = os.Setenv("TALENTFLOW_CONDITION_POLICY", "forever")

			_, err := config.Load(ctx)

			convey.Convey("Then it should be rejected as invalid", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
