package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	hudderr "github.com/huddleai/huddle/pkg/errors"
	"github.com/huddleai/huddle/pkg/logging"
	"github.com/huddleai/huddle/pkg/telemetry"
)

// Status reports the outcome of a Start or Stop call.
type Status string

const (
	StatusStarted        Status = "started"
	StatusAlreadyRunning Status = "already_running"
	StatusStopped        Status = "stopped"
	StatusAlreadyStopped Status = "already_stopped"
)

// Scheduler owns the periodic capture loop. At most one loop runs at a time;
// Start and Stop are idempotent and Stop waits for the in-flight iteration to
// finish before returning.
type Scheduler struct {
	capturer   ScreenCapturer
	encoder    *Encoder
	store      *Store
	storageDir string
	interval   time.Duration
	logger     *logging.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler wires a capture loop over the supplied collaborators.
func NewScheduler(capturer ScreenCapturer, encoder *Encoder, store *Store, storageDir string, interval time.Duration, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Scheduler{
		capturer:   capturer,
		encoder:    encoder,
		store:      store,
		storageDir: storageDir,
		interval:   interval,
		logger:     logger,
	}
}

// Start launches the capture loop. Calling Start while the loop is running is
// a no-op that reports the existing state.
func (s *Scheduler) Start() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return StatusAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done

	go s.loop(ctx, done)

	s.logger.Info(logging.CategoryCapture, "capture_started", "capture loop started", map[string]any{
		"interval": s.interval.String(),
	})
	return StatusStarted
}

// Stop halts the capture loop and waits for the in-flight iteration to
// complete. Calling Stop when no loop is active reports the current state.
func (s *Scheduler) Stop() Status {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return StatusAlreadyStopped
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	cancel()
	<-done

	s.logger.Info(logging.CategoryCapture, "capture_stopped", "capture loop stopped", nil)
	return StatusStopped
}

// Active reports whether the loop is currently running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		s.iterate(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.interval):
		}
	}
}

// iterate performs one capture attempt. Failures are logged and swallowed so
// the schedule continues at the next interval.
func (s *Scheduler) iterate(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	raw, err := s.capturer.Capture(ctx)
	if err != nil {
		s.recordFailure("capture_failed", err)
		return
	}

	encoded, err := s.encoder.Encode(raw)
	if err != nil {
		s.recordFailure("encode_failed", err)
		return
	}

	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		s.recordFailure("storage_dir_failed", hudderr.Wrap(err, hudderr.ErrCodeCaptureFailed, "creating storage dir"))
		return
	}

	now := time.Now()
	filename := fmt.Sprintf("screenshot_%s_%d.jpg", now.Format("20060102_150405"), s.store.NextSequence())
	path := filepath.Join(s.storageDir, filename)

	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		s.recordFailure("persist_failed", hudderr.Wrap(err, hudderr.ErrCodeCaptureFailed, "writing screenshot"))
		return
	}

	rec := s.store.Add(path, now)
	telemetry.CapturesTotal.Inc()
	s.logger.Debug(logging.CategoryCapture, "screenshot_saved", "saved frame", map[string]any{
		"path":     rec.Path,
		"sequence": rec.Sequence,
	})
}

func (s *Scheduler) recordFailure(eventType string, err error) {
	telemetry.CaptureFailuresTotal.Inc()
	s.logger.Error(logging.CategoryCapture, eventType, "capture iteration failed", map[string]any{
		"error": err.Error(),
	})
}
