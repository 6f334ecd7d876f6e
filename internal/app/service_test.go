package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	app "github.com/okian/reviewforge/internal/app"
	"github.com/okian/reviewforge/internal/domain/model"
	"github.com/okian/reviewforge/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func newService(t *testing.T, opts ...app.Option) (*app.Service, string) {
	t.Helper()
	dir := t.TempDir()
	base := []app.Option{
		app.WithDataDir(dir),
		app.WithTrainingDelays(0, 0, 0),
	}
	svc := app.New(append(base, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	t.Cleanup(svc.Stop)
	return svc, dir
}

func readFeedbackLines(t *testing.T, dir string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "feedback.jsonl"))
	So(err, ShouldBeNil)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestRecordFeedback(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc, dir := newService(t)

		Convey("When positive feedback arrives without an id or score", func() {
			id, err := svc.RecordFeedback(ctx, model.FeedbackSubmission{
				Feedback:   model.FeedbackPositive,
				ReviewText: "Line 42 needs a lock because of the race",
			})

			Convey("Then an id is generated and the default score applied", func() {
				So(err, ShouldBeNil)
				So(id, ShouldStartWith, "rev_")

				lines := readFeedbackLines(t, dir)
				So(len(lines), ShouldEqual, 1)

				var rec model.FeedbackRecord
				So(json.Unmarshal([]byte(lines[0]), &rec), ShouldBeNil)
				So(rec.ReviewID, ShouldEqual, id)
				So(rec.FeedbackType, ShouldEqual, model.FeedbackPositive)
				So(rec.Chosen, ShouldStartWith, `Score: 50/100\nClarity: 12/25`)
				So(rec.Rejected, ShouldEqual, "Score: 50/100 - Incorrect")
				So(rec.Source, ShouldEqual, "reviewforge_dashboard")
				So(rec.Prompt, ShouldContainSubstring, "Line 42 needs a lock")

				_, perr := time.Parse("2006-01-02T15:04:05Z", rec.Timestamp)
				So(perr, ShouldBeNil)
			})
		})

		Convey("When negative feedback arrives with an explicit id and score", func() {
			score := 80
			id, err := svc.RecordFeedback(ctx, model.FeedbackSubmission{
				ReviewID:   "rev_fixed",
				Feedback:   model.FeedbackNegative,
				ReviewText: "nit: rename",
				Score:      &score,
			})

			Convey("Then the id is kept and the score overrides the default", func() {
				So(err, ShouldBeNil)
				So(id, ShouldEqual, "rev_fixed")

				var rec model.FeedbackRecord
				lines := readFeedbackLines(t, dir)
				So(json.Unmarshal([]byte(lines[len(lines)-1]), &rec), ShouldBeNil)
				So(rec.Chosen, ShouldStartWith, `Score: 80/100\nClarity: 20/25`)
				So(rec.Rejected, ShouldEqual, "Score: 20/100 - Incorrect")
			})
		})

		Convey("When negative feedback arrives without a score", func() {
			_, err := svc.RecordFeedback(ctx, model.FeedbackSubmission{
				Feedback:   model.FeedbackNegative,
				ReviewText: "bad",
			})

			Convey("Then the negative default score applies", func() {
				So(err, ShouldBeNil)
				var rec model.FeedbackRecord
				lines := readFeedbackLines(t, dir)
				So(json.Unmarshal([]byte(lines[len(lines)-1]), &rec), ShouldBeNil)
				So(rec.Chosen, ShouldStartWith, `Score: 25/100`)
				So(rec.Rejected, ShouldEqual, "Score: 75/100 - Incorrect")
			})
		})

		Convey("When the review text is very long", func() {
			long := strings.Repeat("x", 500)
			_, err := svc.RecordFeedback(ctx, model.FeedbackSubmission{
				Feedback:   model.FeedbackPositive,
				ReviewText: long,
			})

			Convey("Then the prompt is truncated", func() {
				So(err, ShouldBeNil)
				var rec model.FeedbackRecord
				lines := readFeedbackLines(t, dir)
				So(json.Unmarshal([]byte(lines[len(lines)-1]), &rec), ShouldBeNil)
				So(len(rec.Prompt), ShouldBeLessThan, 300)
			})
		})
	})
}

func TestStartTraining(t *testing.T) {
	Convey("Given a service with a slow-initializing simulator", t, func() {
		ctx := context.Background()
		svc, _ := newService(t,
			app.WithTotalEpochs(3),
			app.WithTrainingDelays(200*time.Millisecond, 0, 0),
		)

		Convey("When training is started twice", func() {
			first, err1 := svc.StartTraining(ctx)
			second, err2 := svc.StartTraining(ctx)

			Convey("Then only the first start wins", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
			})

			Convey("And the snapshot leaves the idle state", func() {
				snap := svc.Metrics(ctx)
				So(snap.Status, ShouldNotEqual, model.StatusIdle)
			})
		})
	})

	Convey("Given a service with zero delays", t, func() {
		ctx := context.Background()
		svc, _ := newService(t, app.WithTotalEpochs(2))

		Convey("When a run completes", func() {
			started, err := svc.StartTraining(ctx)
			So(err, ShouldBeNil)
			So(started, ShouldBeTrue)

			deadline := time.After(5 * time.Second)
			for svc.Metrics(ctx).Status != model.StatusCompleted {
				select {
				case <-deadline:
					t.Fatal("run did not complete")
				case <-time.After(5 * time.Millisecond):
				}
			}

			Convey("Then a new run can be started afterwards", func() {
				again, err := svc.StartTraining(ctx)
				So(err, ShouldBeNil)
				So(again, ShouldBeTrue)
			})
		})
	})
}

func TestTestModel(t *testing.T) {
	Convey("Given a service without an inference backend", t, func() {
		ctx := context.Background()
		svc, _ := newService(t)

		Convey("When a review is scored", func() {
			review := "Line 10 has an off-by-one, consider using <= because the loop misses the last item"
			result, before, after, err := svc.TestModel(ctx, review)

			Convey("Then the heuristic report carries both scores", func() {
				So(err, ShouldBeNil)
				So(before, ShouldBeBetweenOrEqual, 0, 100)
				So(after, ShouldBeBetweenOrEqual, 0, 95)
				So(result, ShouldContainSubstring, "Score:")
				So(result, ShouldContainSubstring, "Clarity:")
			})
		})
	})

	Convey("Given a service with an inference backend", t, func() {
		ctx := context.Background()

		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"text":"Score: 88/100 from the model","model":"tiny","provider":"local"}`))
		}))
		defer backend.Close()

		svc, _ := newService(t, app.WithInferenceURL(backend.URL))

		Convey("When a review is scored", func() {
			result, _, _, err := svc.TestModel(ctx, "Looks good overall")

			Convey("Then the backend's text replaces the heuristic report", func() {
				So(err, ShouldBeNil)
				So(result, ShouldEqual, "Score: 88/100 from the model")
			})
		})
	})

	Convey("Given a failing inference backend", t, func() {
		ctx := context.Background()

		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer backend.Close()

		svc, _ := newService(t, app.WithInferenceURL(backend.URL))

		Convey("When a review is scored", func() {
			result, _, _, err := svc.TestModel(ctx, "Looks good overall")

			Convey("Then the heuristic report is used as a fallback", func() {
				So(err, ShouldBeNil)
				So(result, ShouldContainSubstring, "Clarity:")
			})
		})
	})
}

func TestUploadAndSampleRules(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc, dir := newService(t)

		Convey("When a raw training example is uploaded", func() {
			err := svc.UploadTraining(ctx, json.RawMessage(`{"prompt":"p","chosen":"c","rejected":"r"}`))

			Convey("Then it lands in the feedback log unmodified", func() {
				So(err, ShouldBeNil)
				lines := readFeedbackLines(t, dir)
				So(len(lines), ShouldEqual, 1)
				So(lines[0], ShouldContainSubstring, `"prompt":"p"`)
			})
		})

		Convey("When the sample rules file exists", func() {
			rules := `{"prompt":"a","chosen":"b","rejected":"c"}` + "\n" +
				`{"prompt":"d","chosen":"e","rejected":"f"}` + "\n"
			So(os.WriteFile(filepath.Join(dir, "coding-rules-training.jsonl"), []byte(rules), 0o644), ShouldBeNil)

			count, err := svc.LoadSampleRules(ctx)

			Convey("Then the examples are imported and counted", func() {
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 2)
				So(len(readFeedbackLines(t, dir)), ShouldEqual, 2)
			})
		})

		Convey("When the sample rules file is missing", func() {
			_, err := svc.LoadSampleRules(ctx)

			Convey("Then a reported, non-fatal error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, _ := newService(t, app.WithTotalEpochs(7))

		Convey("When stats are requested", func() {
			stats := svc.GetStats()

			Convey("Then lifecycle and snapshot fields are present", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["total_epochs"], ShouldEqual, 7)
				So(stats["inference_enabled"], ShouldBeFalse)
				So(stats["status"], ShouldEqual, string(model.StatusIdle))
			})
		})
	})
}
