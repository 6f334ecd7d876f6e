// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8765".
	Addr string `koanf:"addr"`

	// DataDir holds the snapshot file and the feedback log.
	DataDir string `koanf:"data_dir"`

	// SnapshotFile names the metrics snapshot file inside DataDir.
	SnapshotFile string `koanf:"snapshot_file"`

	// FeedbackFile names the append-only feedback log inside DataDir.
	FeedbackFile string `koanf:"feedback_file"`

	// SampleRulesFile locates the bundled sample training rules.
	// Relative paths resolve against DataDir.
	SampleRulesFile string `koanf:"sample_rules_file"`

	// TotalEpochs sets the length of a simulated training run.
	TotalEpochs int `koanf:"total_epochs"`

	// InitDelayMS, StepDelayMS and EpochDelayMS pace the simulated run.
	InitDelayMS  int `koanf:"init_delay_ms"`
	StepDelayMS  int `koanf:"step_delay_ms"`
	EpochDelayMS int `koanf:"epoch_delay_ms"`

	// InferenceURL points at the optional external model server. Empty
	// disables it and /test-model uses the heuristic report.
	InferenceURL string `koanf:"inference_url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8765",
		DataDir:         "data",
		SnapshotFile:    "metrics.json",
		FeedbackFile:    "feedback.jsonl",
		SampleRulesFile: "coding-rules-training.jsonl",
		TotalEpochs:     10,
		InitDelayMS:     1000,
		StepDelayMS:     500,
		EpochDelayMS:    1000,
		InferenceURL:    "",
	}
}
