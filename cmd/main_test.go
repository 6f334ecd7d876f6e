package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/reviewforge/internal/adapters/http/api"
	app "github.com/okian/reviewforge/internal/app"
	"github.com/okian/reviewforge/internal/config"
	"github.com/okian/reviewforge/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("REVIEWFORGE_ADDR", ":9876")
			_ = os.Setenv("REVIEWFORGE_TOTAL_EPOCHS", "5")
			defer func() {
				_ = os.Unsetenv("REVIEWFORGE_ADDR")
				_ = os.Unsetenv("REVIEWFORGE_TOTAL_EPOCHS")
			}()

			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9876")
			convey.So(cfg.TotalEpochs, convey.ShouldEqual, 5)
		})

		convey.Convey("When wiring the service into the HTTP mux", func() {
			dir := t.TempDir()
			svc := app.New(
				app.WithDataDir(dir),
				app.WithTotalEpochs(2),
				app.WithTrainingDelays(0, 0, 0),
			)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			mux := http.NewServeMux()
			apiServer := api.NewServer(svc, svc)
			apiServer.Register(ctx, mux)

			convey.Convey("Then the snapshot endpoint should serve", func() {
				req := httptest.NewRequest("GET", "/metrics", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"status"`)
			})

			convey.Convey("And a full zero-delay run should complete end to end", func() {
				req := httptest.NewRequest("GET", "/start", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, "started")

				deadline := time.After(5 * time.Second)
				for {
					req := httptest.NewRequest("GET", "/metrics", nil)
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, req)
					if convey.ShouldContainSubstring(w.Body.String(), `"status":"completed"`) == "" {
						break
					}
					select {
					case <-deadline:
						t.Fatal("training run did not complete")
					case <-time.After(10 * time.Millisecond):
					}
				}
			})
		})

		convey.Convey("When updating system metrics", func() {
			convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
		})
	})
}
