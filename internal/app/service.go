// Package service provides the core business service that implements the
// dependencies required by the HTTP API: scoring reviews, recording
// feedback, and owning the training-run lifecycle.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/reviewforge/internal/adapters/inference"
	"github.com/okian/reviewforge/internal/adapters/repository"
	"github.com/okian/reviewforge/internal/domain/model"
	"github.com/okian/reviewforge/internal/domain/review"
	"github.com/okian/reviewforge/internal/trainer"
	"github.com/okian/reviewforge/pkg/logger"
	"github.com/okian/reviewforge/pkg/metrics"
)

// Defaults for service configuration.
const (
	defaultDataDir         = "data"
	defaultSnapshotFile    = "metrics.json"
	defaultFeedbackFile    = "feedback.jsonl"
	defaultSampleRulesFile = "coding-rules-training.jsonl"
	defaultTotalEpochs     = 10
	defaultMaxPromptChars  = 200

	positiveDefaultScore = 50
	negativeDefaultScore = 25

	stopWaitTimeout = 5 * time.Second
)

// Service implements the API dependencies for the training service.
type Service struct {
	mu sync.Mutex

	// Core components
	snapshots *repository.SnapshotStore
	feedback  *repository.FeedbackLog
	model     *inference.Client
	activeSim *trainer.Simulator

	// Configuration
	dataDir         string
	snapshotFile    string
	feedbackFile    string
	sampleRulesFile string
	totalEpochs     int
	initDelay       time.Duration
	stepDelay       time.Duration
	epochDelay      time.Duration
	inferenceURL    string
	maxPromptChars  int

	// State
	started bool
	runCtx  context.Context
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDataDir sets the directory holding the snapshot and feedback files.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithSnapshotFile sets the snapshot file name inside the data dir.
func WithSnapshotFile(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.snapshotFile = name
		}
	}
}

// WithFeedbackFile sets the feedback log file name inside the data dir.
func WithFeedbackFile(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.feedbackFile = name
		}
	}
}

// WithSampleRulesFile sets the sample-rules source file. Relative paths
// resolve against the data dir.
func WithSampleRulesFile(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.sampleRulesFile = name
		}
	}
}

// WithTotalEpochs sets the number of epochs per training run.
func WithTotalEpochs(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.totalEpochs = n
		}
	}
}

// WithTrainingDelays sets the simulated pauses for initialization, steps,
// and epochs.
func WithTrainingDelays(initDelay, stepDelay, epochDelay time.Duration) Option {
	return func(s *Service) {
		if initDelay >= 0 {
			s.initDelay = initDelay
		}
		if stepDelay >= 0 {
			s.stepDelay = stepDelay
		}
		if epochDelay >= 0 {
			s.epochDelay = epochDelay
		}
	}
}

// WithInferenceURL enables the external model server for /test-model.
func WithInferenceURL(url string) Option {
	return func(s *Service) {
		s.inferenceURL = url
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:         defaultDataDir,
		snapshotFile:    defaultSnapshotFile,
		feedbackFile:    defaultFeedbackFile,
		sampleRulesFile: defaultSampleRulesFile,
		totalEpochs:     defaultTotalEpochs,
		initDelay:       -1,
		stepDelay:       -1,
		epochDelay:      -1,
		maxPromptChars:  defaultMaxPromptChars,
		logger:          nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the stores and, when configured, the inference client.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting training service...",
		logger.String("data_dir", s.dataDir),
		logger.Int("total_epochs", s.totalEpochs),
	)

	snapshots, err := repository.NewSnapshotStore(ctx, filepath.Join(s.dataDir, s.snapshotFile), s.totalEpochs)
	if err != nil {
		return fmt.Errorf("init snapshot store: %w", err)
	}
	s.snapshots = snapshots
	s.feedback = repository.NewFeedbackLog(filepath.Join(s.dataDir, s.feedbackFile))

	if s.inferenceURL != "" {
		s.model = inference.NewClient(s.inferenceURL)
		s.logger.Info(ctx, "inference backend enabled", logger.String("url", s.inferenceURL))
	}

	// Training runs outlive the request that starts them, so they hang
	// off a service-scoped context canceled on Stop.
	s.runCtx, s.cancel = context.WithCancel(context.Background())

	s.started = true
	s.logger.Info(ctx, "training service started")
	return nil
}

// Stop cancels any in-flight training run and waits briefly for it to
// wind down.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.cancel()
	sim := s.activeSim
	s.mu.Unlock()

	if sim != nil {
		select {
		case <-sim.Done():
		case <-time.After(stopWaitTimeout):
			s.logger.Warn(context.Background(), "training run did not stop in time")
		}
	}
	s.logger.Info(context.Background(), "training service stopped")
}

// StartTraining claims and launches a training run. It returns false when
// a run is already in flight; at most one simulator task is ever active.
func (s *Service) StartTraining(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.snapshots.TryStart(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Info(ctx, "training already running; start ignored")
		return false, nil
	}

	opts := []trainer.Option{
		trainer.WithTotalEpochs(s.totalEpochs),
		trainer.WithLogger(s.logger.Named("trainer")),
	}
	if s.initDelay >= 0 {
		opts = append(opts, trainer.WithInitDelay(s.initDelay))
	}
	if s.stepDelay >= 0 {
		opts = append(opts, trainer.WithStepDelay(s.stepDelay))
	}
	if s.epochDelay >= 0 {
		opts = append(opts, trainer.WithEpochDelay(s.epochDelay))
	}

	sim := trainer.New(s.snapshots, s.feedback, opts...)
	s.activeSim = sim
	go func() {
		// Run logs its own outcome; a failed run simply leaves the last
		// persisted snapshot in place.
		_ = sim.Run(s.runCtx)
	}()

	s.logger.Info(ctx, "training run started", logger.Int("total_epochs", s.totalEpochs))
	return true, nil
}

// Metrics returns a copy of the current metrics snapshot.
func (s *Service) Metrics(ctx context.Context) model.MetricsSnapshot {
	return s.snapshots.Snapshot(ctx)
}

// TestModel scores a review with the baseline and trained scorers and
// renders the trained result. When an inference backend is configured its
// output replaces the heuristic report; any backend error falls back
// silently.
func (s *Service) TestModel(ctx context.Context, text string) (result string, before, after int, err error) {
	before = review.Baseline(text)
	after = review.Trained(text)
	result = review.Report(text, after)

	if s.model != nil {
		prompt := fmt.Sprintf("Score this code review: '%s'", truncate(text, s.maxPromptChars))
		resp, genErr := s.model.Generate(ctx, inference.GenerateRequest{Prompt: prompt})
		if genErr != nil {
			s.logger.Warn(ctx, "inference backend unavailable; using heuristic report", logger.Error(genErr))
		} else if resp.Text != "" {
			result = resp.Text
		}
	}

	metrics.RecordModelTest()
	return result, before, after, nil
}

// RecordFeedback turns a reviewer's polarity on a scored review into a
// preference record and appends it to the feedback log.
func (s *Service) RecordFeedback(ctx context.Context, sub model.FeedbackSubmission) (string, error) {
	reviewID := sub.ReviewID
	if reviewID == "" {
		reviewID = "rev_" + uuid.NewString()
	}

	score := negativeDefaultScore
	if sub.Feedback == model.FeedbackPositive {
		score = positiveDefaultScore
	}
	if sub.Score != nil {
		score = *sub.Score
	}
	dim := score / 4

	rec := model.FeedbackRecord{
		Prompt: fmt.Sprintf("Score this code review: '%s'", truncate(sub.ReviewText, s.maxPromptChars)),
		// Stored records carry literal \n escapes, not newlines; the
		// reward detector only substring-matches, so this is lossless.
		Chosen: fmt.Sprintf(
			`Score: %d/100\nClarity: %d/25\nCompleteness: %d/25\nActionability: %d/25\nConstructiveness: %d/25`,
			score, dim, dim, dim, dim,
		),
		Rejected:     fmt.Sprintf("Score: %d/100 - Incorrect", 100-score),
		FeedbackType: sub.Feedback,
		ReviewID:     reviewID,
		Timestamp:    time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Source:       "reviewforge_dashboard",
	}

	if err := s.feedback.Append(ctx, rec); err != nil {
		return "", err
	}

	s.logger.Info(ctx, "feedback saved",
		logger.String("feedback", string(sub.Feedback)),
		logger.String("review_id", reviewID),
	)
	return reviewID, nil
}

// UploadTraining appends one raw training payload to the feedback log.
func (s *Service) UploadTraining(ctx context.Context, payload json.RawMessage) error {
	return s.feedback.AppendRaw(ctx, payload)
}

// LoadSampleRules imports the bundled sample-rules dataset into the
// feedback log and returns the number of imported examples.
func (s *Service) LoadSampleRules(ctx context.Context) (int, error) {
	path := s.sampleRulesFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dataDir, path)
	}
	return s.feedback.ImportFile(ctx, path)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"total_epochs":      s.totalEpochs,
		"inference_enabled": s.model != nil,
	}

	if s.started {
		snap := s.snapshots.Snapshot(ctx)
		stats["status"] = string(snap.Status)
		stats["epoch"] = snap.Epoch
		stats["samples"] = snap.Samples

		if n, err := s.feedback.Count(ctx); err == nil {
			stats["feedback_records"] = n
			metrics.UpdateFeedbackRecords(n)
		}
	}

	return stats
}

// truncate limits s to max runes so prompts stay bounded.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
