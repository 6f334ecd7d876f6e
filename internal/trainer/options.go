package trainer

import (
	"time"

	"github.com/okian/reviewforge/pkg/logger"
)

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithTotalEpochs sets the number of simulated epochs per run.
func WithTotalEpochs(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.totalEpochs = n
		}
	}
}

// WithInitDelay sets the simulated initialization pause.
func WithInitDelay(d time.Duration) Option {
	return func(s *Simulator) {
		if d >= 0 {
			s.initDelay = d
		}
	}
}

// WithStepDelay sets the simulated pause between in-epoch steps.
func WithStepDelay(d time.Duration) Option {
	return func(s *Simulator) {
		if d >= 0 {
			s.stepDelay = d
		}
	}
}

// WithEpochDelay sets the simulated pause between epochs.
func WithEpochDelay(d time.Duration) Option {
	return func(s *Simulator) {
		if d >= 0 {
			s.epochDelay = d
		}
	}
}

// WithLogger sets a custom logger for the simulator.
func WithLogger(l logger.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}
