package inference_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/reviewforge/internal/adapters/inference"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	Convey("Given a fake model server", t, func() {
		ctx := context.Background()

		var gotGenerate inference.GenerateRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/generate":
				if r.Method != http.MethodPost {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_ = json.NewDecoder(r.Body).Decode(&gotGenerate)
				_ = json.NewEncoder(w).Encode(inference.GenerateResponse{
					Text:     "Score: 70/100",
					Model:    "review-scorer",
					Provider: "oumi",
				})
			case "/health":
				_ = json.NewEncoder(w).Encode(inference.HealthResponse{
					Status:      "ok",
					ModelLoaded: true,
					ModelPath:   "./models/review-scorer",
				})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		client := inference.NewClient(srv.URL)

		Convey("When generating a completion", func() {
			out, err := client.Generate(ctx, inference.GenerateRequest{Prompt: "Score this review: 'LGTM'"})
			So(err, ShouldBeNil)

			Convey("Then the response is decoded", func() {
				So(out.Text, ShouldEqual, "Score: 70/100")
				So(out.Provider, ShouldEqual, "oumi")
			})

			Convey("Then default parameters are filled in", func() {
				So(gotGenerate.MaxTokens, ShouldEqual, 512)
				So(gotGenerate.Temperature, ShouldAlmostEqual, 0.3, 1e-9)
				So(gotGenerate.Prompt, ShouldEqual, "Score this review: 'LGTM'")
			})
		})

		Convey("When checking health", func() {
			out, err := client.Health(ctx)
			So(err, ShouldBeNil)
			So(out.Status, ShouldEqual, "ok")
			So(out.ModelLoaded, ShouldBeTrue)
		})
	})

	Convey("Given a server that errors", t, func() {
		ctx := context.Background()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := inference.NewClient(srv.URL)

		Convey("When generating, the status error is surfaced", func() {
			_, err := client.Generate(ctx, inference.GenerateRequest{Prompt: "x"})
			So(err, ShouldNotBeNil)
		})

		Convey("When checking health, the status error is surfaced", func() {
			_, err := client.Health(ctx)
			So(err, ShouldNotBeNil)
		})
	})
}
