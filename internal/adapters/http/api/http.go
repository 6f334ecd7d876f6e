// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/reviewforge/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// StartTraining claims the training slot and spawns a simulator run.
	// Returns false when a run is already in progress.
	StartTraining(ctx context.Context) (bool, error)

	// Metrics returns a copy of the current training snapshot.
	Metrics(ctx context.Context) model.MetricsSnapshot

	// TestModel scores a review with both scorers and builds a report.
	TestModel(ctx context.Context, text string) (result string, before, after int, err error)

	// RecordFeedback converts a submission into a preference record and
	// appends it to the feedback log. Returns the review id used.
	RecordFeedback(ctx context.Context, sub model.FeedbackSubmission) (string, error)

	// UploadTraining appends one raw training example to the feedback log.
	UploadTraining(ctx context.Context, payload json.RawMessage) error

	// LoadSampleRules imports the bundled sample-rules file.
	LoadSampleRules(ctx context.Context) (int, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	metricsHandler     *MetricsHandler
	startHandler       *StartHandler
	testModelHandler   *TestModelHandler
	feedbackHandler    *FeedbackHandler
	uploadHandler      *UploadHandler
	sampleRulesHandler *SampleRulesHandler
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	dashboardHandler   *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		metricsHandler:     NewMetricsHandler(deps),
		startHandler:       NewStartHandler(deps),
		testModelHandler:   NewTestModelHandler(deps),
		feedbackHandler:    NewFeedbackHandler(deps),
		uploadHandler:      NewUploadHandler(deps),
		sampleRulesHandler: NewSampleRulesHandler(deps),
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		dashboardHandler:   newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/", CORSMiddleware(s.dashboardHandler.HandleDashboard))
	mux.HandleFunc("/dashboard", CORSMiddleware(s.dashboardHandler.HandleDashboard))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(CORSMiddleware(s.statsHandler.HandleStats), "stats"))
	mux.HandleFunc("/metrics", MetricsMiddleware(CORSMiddleware(s.metricsHandler.HandleMetrics), "metrics"))
	mux.HandleFunc("/metrics.json", MetricsMiddleware(CORSMiddleware(s.metricsHandler.HandleMetrics), "metrics"))
	mux.HandleFunc("/start", MetricsMiddleware(CORSMiddleware(s.startHandler.HandleStart), "start"))
	mux.HandleFunc("/test-model", MetricsMiddleware(CORSMiddleware(s.testModelHandler.HandleTestModel), "test_model"))
	mux.HandleFunc("/feedback", MetricsMiddleware(CORSMiddleware(s.feedbackHandler.HandleFeedback), "feedback"))
	mux.HandleFunc("/upload-training", MetricsMiddleware(CORSMiddleware(s.uploadHandler.HandleUpload), "upload_training"))
	mux.HandleFunc("/load-sample-rules", MetricsMiddleware(CORSMiddleware(s.sampleRulesHandler.HandleLoadSampleRules), "load_sample_rules"))
}

type errorResponse struct {
	Error string `json:"error"`
}

type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the bare {"error": msg} failure shape.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure emits the {"success": false, "error": msg} failure shape.
func writeFailure(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, failureResponse{Success: false, Error: msg})
}
