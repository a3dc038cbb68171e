package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/folajindayo/builder-score-app-sub000/internal/config"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/categorize"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.PageSize, convey.ShouldEqual, 20)
			convey.So(cfg.DisplayStep, convey.ShouldEqual, 30)
			convey.So(cfg.Sponsors, convey.ShouldResemble, []string{"base", "celo"})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.Mode(), convey.ShouldEqual, categorize.LastWriteWins)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid settings", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero page size", func(c *config.Config) { c.PageSize = 0 }},
			{"negative display step", func(c *config.Config) { c.DisplayStep = -1 }},
			{"blank sponsors", func(c *config.Config) { c.Sponsors = []string{" ", ""} }},
			{"unknown mode", func(c *config.Config) { c.CategoryMode = "random" }},
			{"no upstream", func(c *config.Config) { c.LeaderboardAPIURL = "" }},
		}

		for _, tc := range cases {
			cfg := config.New()
			tc.mutate(cfg)

			convey.Convey("Then "+tc.name+" is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given fixture mode without an upstream", t, func() {
		cfg := config.New()
		cfg.FixtureMode = true
		cfg.LeaderboardAPIURL = ""
		cfg.CategoryMode = "exclusive"

		convey.Convey("Then the config is valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.Mode(), convey.ShouldEqual, categorize.Exclusive)
		})
	})
}
