// Package trainer drives the simulated training run. A Simulator is a
// single background task that advances the metrics snapshot through a
// fixed epoch schedule, deriving loss and reward from the feedback log via
// the review reward detector. It performs no real optimization; every
// number it produces comes from an explicit formula.
package trainer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/reviewforge/internal/domain/model"
	"github.com/okian/reviewforge/internal/domain/review"
	"github.com/okian/reviewforge/pkg/logger"
	"github.com/okian/reviewforge/pkg/metrics"
)

// Simulation formula constants.
const (
	defaultTotalEpochs = 10
	defaultInitDelay   = time.Second
	defaultStepDelay   = 500 * time.Millisecond
	defaultEpochDelay  = time.Second

	baseLoss        = 2.8
	baseReward      = 0.25
	rewardCeiling   = 0.95
	improvementGain = 0.7
	sampleGain      = 0.1
)

// epochSteps are the named steps simulated inside every epoch, in order.
var epochSteps = []string{"generate", "compute_reward", "update_weights"}

// setupSteps precede the epoch loop.
var setupSteps = []string{"load_data", "load_model"}

// SnapshotWriter is how the simulator publishes progress. Every call
// persists before returning.
type SnapshotWriter interface {
	Update(ctx context.Context, fn func(*model.MetricsSnapshot)) error
}

// FeedbackSource supplies the training examples for a run.
type FeedbackSource interface {
	Records(ctx context.Context) ([]model.FeedbackRecord, error)
}

// Simulator runs one training simulation to completion.
type Simulator struct {
	snapshots SnapshotWriter
	feedback  FeedbackSource

	totalEpochs int
	initDelay   time.Duration
	stepDelay   time.Duration
	epochDelay  time.Duration

	done chan struct{}

	logger logger.Logger
}

// New creates a simulator writing progress through snapshots and reading
// training data from feedback.
func New(snapshots SnapshotWriter, feedback FeedbackSource, opts ...Option) *Simulator {
	s := &Simulator{
		snapshots:   snapshots,
		feedback:    feedback,
		totalEpochs: defaultTotalEpochs,
		initDelay:   defaultInitDelay,
		stepDelay:   defaultStepDelay,
		epochDelay:  defaultEpochDelay,
		done:        make(chan struct{}),
		logger:      logger.Get().Named("trainer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Done is closed when the run has finished, failed, or been canceled.
func (s *Simulator) Done() <-chan struct{} {
	return s.done
}

// Run executes the full simulation. It returns on completion, on context
// cancellation, or on the first persistence failure. There is no failed
// status: an aborted run leaves the last persisted snapshot in place and
// the error is logged by the caller's goroutine via the returned error.
func (s *Simulator) Run(ctx context.Context) error {
	defer close(s.done)

	metrics.RecordTrainingRunStarted()
	start := time.Now()

	if err := s.run(ctx); err != nil {
		s.logger.Error(ctx, "training run aborted", logger.Error(err))
		return err
	}

	s.logger.Info(ctx, "training run completed",
		logger.Int("epochs", s.totalEpochs),
		logger.Float64("duration_seconds", time.Since(start).Seconds()),
	)
	metrics.RecordTrainingRunCompleted()
	return nil
}

func (s *Simulator) run(ctx context.Context) error {
	if err := s.snapshots.Update(ctx, func(m *model.MetricsSnapshot) {
		m.Status = model.StatusInitializing
		m.CurrentStep = "Loading libraries..."
	}); err != nil {
		return err
	}
	if err := s.sleep(ctx, s.initDelay); err != nil {
		return err
	}

	if err := s.snapshots.Update(ctx, func(m *model.MetricsSnapshot) {
		m.CurrentStep = "Loading feedback data..."
		m.StepsCompleted = []string{"load_data"}
	}); err != nil {
		return err
	}

	samples, err := s.loadSamples(ctx)
	if err != nil {
		return err
	}
	if err := s.snapshots.Update(ctx, func(m *model.MetricsSnapshot) {
		m.Samples = len(samples)
	}); err != nil {
		return err
	}
	if err := s.sleep(ctx, s.initDelay); err != nil {
		return err
	}

	if err := s.snapshots.Update(ctx, func(m *model.MetricsSnapshot) {
		m.CurrentStep = "Loading model (TinyLlama-1.1B)..."
		m.StepsCompleted = append(m.StepsCompleted, "load_model")
	}); err != nil {
		return err
	}
	if err := s.sleep(ctx, s.initDelay+s.initDelay/2); err != nil {
		return err
	}

	if err := s.snapshots.Update(ctx, func(m *model.MetricsSnapshot) {
		m.Status = model.StatusTraining
		m.TotalEpochs = s.totalEpochs
	}); err != nil {
		return err
	}

	// The per-sample reward is constant across epochs; what changes is
	// the improvement term.
	meanSampleReward := meanPreferenceMargin(samples)

	for epoch := 1; epoch <= s.totalEpochs; epoch++ {
		if err := s.runEpoch(ctx, epoch, meanSampleReward); err != nil {
			return err
		}
	}

	return s.snapshots.Update(ctx, func(m *model.MetricsSnapshot) {
		m.Status = model.StatusCompleted
		m.CurrentStep = "Training complete!"
	})
}

func (s *Simulator) runEpoch(ctx context.Context, epoch int, meanSampleReward float64) error {
	if err := s.snapshots.Update(ctx, func(m *model.MetricsSnapshot) {
		m.Epoch = epoch
	}); err != nil {
		return err
	}

	for i, step := range epochSteps {
		stepName := step
		completed := append(append([]string{}, setupSteps...), epochSteps[:i+1]...)
		if err := s.snapshots.Update(ctx, func(m *model.MetricsSnapshot) {
			m.CurrentStep = fmt.Sprintf("Epoch %d: %s", epoch, stepName)
			m.StepsCompleted = completed
		}); err != nil {
			return err
		}
		if err := s.sleep(ctx, s.stepDelay); err != nil {
			return err
		}
	}

	improvement := float64(epoch) / float64(s.totalEpochs)
	reward := baseReward + improvementGain*improvement + sampleGain*meanSampleReward
	if reward > rewardCeiling {
		reward = rewardCeiling
	}
	loss := baseLoss * (1 - improvementGain*improvement)

	loss = round4(loss)
	reward = round4(reward)

	if err := s.snapshots.Update(ctx, func(m *model.MetricsSnapshot) {
		m.Loss = loss
		m.Reward = reward
		m.History.Loss = append(m.History.Loss, loss)
		m.History.Reward = append(m.History.Reward, reward)
		m.History.Epochs = append(m.History.Epochs, epoch)
	}); err != nil {
		return err
	}

	metrics.UpdateTrainingEpoch(epoch)
	metrics.UpdateTrainingLoss(loss)
	metrics.UpdateTrainingReward(reward)

	return s.sleep(ctx, s.epochDelay)
}

// loadSamples returns the feedback log contents, falling back to a small
// fixed synthetic set when the log is empty so a run always has data.
func (s *Simulator) loadSamples(ctx context.Context) ([]model.FeedbackRecord, error) {
	records, err := s.feedback.Records(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		s.logger.Info(ctx, "loaded feedback data", logger.Int("samples", len(records)))
		return records, nil
	}
	s.logger.Info(ctx, "feedback log empty; using synthetic examples")
	return syntheticExamples(), nil
}

// meanPreferenceMargin averages reward(chosen) - reward(rejected) over the
// sample set.
func meanPreferenceMargin(samples []model.FeedbackRecord) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, sample := range samples {
		sum += review.Reward(sample.Chosen) - review.Reward(sample.Rejected)
	}
	return sum / float64(len(samples))
}

// syntheticExamples is the fixed fallback dataset used when no feedback
// has been collected yet.
func syntheticExamples() []model.FeedbackRecord {
	return []model.FeedbackRecord{
		{
			Prompt:   "Score this review: 'LGTM'",
			Chosen:   "Score: 15/100\nClarity: 5/25\nCompleteness: 2/25\nActionability: 3/25\nConstructiveness: 5/25",
			Rejected: "Great review!",
		},
		{
			Prompt:   "Score this review: 'Consider adding error handling for null case on line 42'",
			Chosen:   "Score: 75/100\nClarity: 20/25\nCompleteness: 18/25\nActionability: 20/25\nConstructiveness: 17/25",
			Rejected: "Bad review",
		},
		{
			Prompt:   "Score this review: 'Fix your code'",
			Chosen:   "Score: 25/100\nClarity: 8/25\nCompleteness: 5/25\nActionability: 7/25\nConstructiveness: 5/25",
			Rejected: "Perfect!",
		},
	}
}

func (s *Simulator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
