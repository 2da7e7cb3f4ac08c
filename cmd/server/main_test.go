package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	app "github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/config"
	"github.com/okian/lineup/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given server settings in the environment", t, func() {
		t.Setenv("LINEUP_ADDR", ":8088")
		t.Setenv("LINEUP_QUEUE_SIZE", "64")
		t.Setenv("LINEUP_WORKER_COUNT", "2")
		t.Setenv("LINEUP_ENV_FILE", "")

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8088")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
		})
	})

	convey.Convey("Given an invalid setting", t, func() {
		t.Setenv("LINEUP_QUEUE_SIZE", "0")
		t.Setenv("LINEUP_ENV_FILE", "")

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMainMux(t *testing.T) {
	convey.Convey("Given a started service behind the server mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		svc := app.New(app.WithConfig(config.New()), app.WithWorkerCount(1))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		registerRuntimeCollectors()
		registerRuntimeCollectors()
		mux := newMux(ctx, svc)

		convey.Convey("When posting a formulation", func() {
			body := `{"seed":1,"iterations":50,"players":{"a":{"forward":9},"b":{"defender":9},"c":{"midfielder":5},"d":{"forward":3}}}`
			req := httptest.NewRequest(http.MethodPost, "/formulations", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then the service answers", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"label":"Team 1"`)
			})
		})

		convey.Convey("When a job asks for an absurd team count", func() {
			body := `{"num_teams":4611686018427387904,"players":{"a":{"forward":9},"b":{"defender":9}}}`
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body)))

			convey.Convey("Then it is refused as a bad request and the server keeps serving", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)

				again := httptest.NewRecorder()
				mux.ServeHTTP(again, httptest.NewRequest(http.MethodGet, "/strategies", http.NoBody))
				convey.So(again.Code, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When scraping metrics", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

			convey.Convey("Then runtime collectors are exposed", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "go_goroutines")
			})
		})

		convey.Convey("When fetching the docs", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})
	})

	convey.Convey("Given the service metrics updater", t, func() {
		svc := app.New()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
	})
}
