// Package repository provides the durable stores backing the training
// service: an append-only feedback log and a write-through snapshot store.
package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/okian/reviewforge/internal/domain/model"
	"github.com/okian/reviewforge/pkg/logger"
	"github.com/okian/reviewforge/pkg/metrics"
)

const feedbackFileMode = 0o644

// FeedbackLog is an append-only, line-delimited JSON log of training
// examples. Appends from concurrent handlers serialize on a single mutex;
// existing lines are never rewritten.
type FeedbackLog struct {
	mu   sync.Mutex
	path string

	logger logger.Logger
}

// LogOption applies a configuration option to the FeedbackLog.
type LogOption func(*FeedbackLog)

// WithLogLogger sets a custom logger for the feedback log.
func WithLogLogger(l logger.Logger) LogOption {
	return func(f *FeedbackLog) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFeedbackLog creates a feedback log writing to path. The file is
// created lazily on first append.
func NewFeedbackLog(path string, opts ...LogOption) *FeedbackLog {
	f := &FeedbackLog{
		path:   path,
		logger: logger.Get().Named("feedback"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Append serializes one feedback record and appends it as a single line.
func (f *FeedbackLog) Append(ctx context.Context, rec model.FeedbackRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal feedback record: %w", err)
	}
	return f.appendLine(ctx, data)
}

// AppendRaw appends an arbitrary JSON object as one line. Used by bulk
// training-data uploads whose shape is not constrained.
func (f *FeedbackLog) AppendRaw(ctx context.Context, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return ErrInvalidPayload
	}
	// Compact to guarantee the payload stays on one line.
	var buf bytes.Buffer
	if err := json.Compact(&buf, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return f.appendLine(ctx, buf.Bytes())
}

func (f *FeedbackLog) appendLine(ctx context.Context, line []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create feedback dir: %w", err)
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, feedbackFileMode)
	if err != nil {
		return fmt.Errorf("open feedback log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append feedback record: %w", err)
	}
	metrics.RecordFeedbackAppended()
	f.logger.Debug(ctx, "feedback record appended", logger.Int("bytes", len(line)))
	return nil
}

// Records reads every parseable record from the log. Lines that do not
// parse as a feedback record are skipped with a warning so that one
// malformed upload cannot poison a training run.
func (f *FeedbackLog) Records(ctx context.Context) ([]model.FeedbackRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open feedback log: %w", err)
	}
	defer file.Close()

	var out []model.FeedbackRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec model.FeedbackRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			f.logger.Warn(ctx, "skipping unparseable feedback line", logger.Error(err))
			continue
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan feedback log: %w", err)
	}
	return out, nil
}

// Count returns the number of lines currently in the log.
func (f *FeedbackLog) Count(ctx context.Context) (int, error) {
	records, err := f.Records(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// ImportFile copies every non-blank line from path into the log and
// returns the number of lines imported. A missing source file yields
// ErrSampleRulesNotFound; the log is untouched in that case.
func (f *FeedbackLog) ImportFile(ctx context.Context, path string) (int, error) {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrSampleRulesNotFound
		}
		return 0, fmt.Errorf("open sample rules: %w", err)
	}
	defer src.Close()

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return 0, fmt.Errorf("create feedback dir: %w", err)
	}
	dst, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, feedbackFileMode)
	if err != nil {
		return 0, fmt.Errorf("open feedback log: %w", err)
	}
	defer dst.Close()

	count := 0
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := []byte(strings.TrimSpace(scanner.Text()))
		if len(line) == 0 {
			continue
		}
		if _, err := dst.Write(append(line, '\n')); err != nil {
			return count, fmt.Errorf("append sample rule: %w", err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("scan sample rules: %w", err)
	}
	f.logger.Info(ctx, "sample rules imported", logger.Int("count", count))
	return count, nil
}

// Path returns the log file location.
func (f *FeedbackLog) Path() string {
	return f.path
}
