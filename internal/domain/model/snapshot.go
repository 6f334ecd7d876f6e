// Package model contains domain models passed between layers.
package model

// TrainingStatus enumerates the lifecycle of a training run.
type TrainingStatus string

// Training run statuses, in lifecycle order.
const (
	StatusIdle         TrainingStatus = "idle"
	StatusStarting     TrainingStatus = "starting"
	StatusInitializing TrainingStatus = "initializing"
	StatusTraining     TrainingStatus = "training"
	StatusCompleted    TrainingStatus = "completed"
)

// Running reports whether a run is in progress. The transient "starting"
// status counts as running so two start requests cannot both spawn a task.
func (s TrainingStatus) Running() bool {
	return s == StatusStarting || s == StatusInitializing || s == StatusTraining
}

// History holds the per-epoch metric series. The three slices always have
// equal length once training has begun.
type History struct {
	Loss   []float64 `json:"loss"`
	Reward []float64 `json:"reward"`
	Epochs []int     `json:"epochs"`
}

// MetricsSnapshot is the complete observable state of a training run.
// Fields mirror the JSON served on GET /metrics.
type MetricsSnapshot struct {
	Status         TrainingStatus `json:"status"`
	Epoch          int            `json:"epoch"`
	TotalEpochs    int            `json:"total_epochs"`
	Loss           float64        `json:"loss"`
	Reward         float64        `json:"reward"`
	Samples        int            `json:"samples"`
	History        History        `json:"history"`
	CurrentStep    string         `json:"current_step"`
	StepsCompleted []string       `json:"steps_completed"`
}

// NewMetricsSnapshot returns the initial idle snapshot.
func NewMetricsSnapshot(totalEpochs int) MetricsSnapshot {
	return MetricsSnapshot{
		Status:      StatusIdle,
		TotalEpochs: totalEpochs,
		History: History{
			Loss:   []float64{},
			Reward: []float64{},
			Epochs: []int{},
		},
		StepsCompleted: []string{},
	}
}

// Clone returns a deep copy so callers can hand snapshots across goroutine
// boundaries without sharing slice backing arrays.
func (m MetricsSnapshot) Clone() MetricsSnapshot {
	out := m
	out.History.Loss = append([]float64{}, m.History.Loss...)
	out.History.Reward = append([]float64{}, m.History.Reward...)
	out.History.Epochs = append([]int{}, m.History.Epochs...)
	out.StepsCompleted = append([]string{}, m.StepsCompleted...)
	return out
}

// Reset clears run progress ahead of a new training run, keeping
// total_epochs and samples untouched.
func (m *MetricsSnapshot) Reset() {
	m.Status = StatusStarting
	m.Epoch = 0
	m.Loss = 0
	m.Reward = 0
	m.History = History{
		Loss:   []float64{},
		Reward: []float64{},
		Epochs: []int{},
	}
	m.StepsCompleted = []string{}
	m.CurrentStep = ""
}
