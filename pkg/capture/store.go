package capture

import (
	"os"
	"sync"
	"time"

	"github.com/huddleai/huddle/pkg/logging"
	"github.com/huddleai/huddle/pkg/telemetry"
)

// ScreenshotRecord identifies one persisted capture.
type ScreenshotRecord struct {
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

// Store is a bounded, time-ordered buffer of screenshot records. When the
// buffer exceeds its capacity the oldest record is evicted and its backing
// file deleted best-effort.
type Store struct {
	mu      sync.Mutex
	records []ScreenshotRecord
	max     int
	nextSeq uint64
	logger  *logging.Logger
}

// NewStore creates a store retaining at most max records.
func NewStore(max int, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{
		records: make([]ScreenshotRecord, 0, max+1),
		max:     max,
		nextSeq: 1,
		logger:  logger,
	}
}

// Add appends a record for path, assigning the next sequence number, and
// evicts the oldest record if the buffer is over capacity. Eviction file
// deletion is best-effort: failures are logged, never returned.
func (s *Store) Add(path string, ts time.Time) ScreenshotRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := ScreenshotRecord{
		Sequence:  s.nextSeq,
		Timestamp: ts,
		Path:      path,
	}
	s.nextSeq++
	s.records = append(s.records, rec)

	if len(s.records) > s.max {
		evicted := s.records[0]
		s.records = s.records[1:]
		telemetry.EvictionsTotal.Inc()

		if err := os.Remove(evicted.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn(logging.CategoryCapture, "eviction_io_error",
				"failed to delete evicted screenshot", map[string]any{
					"path":     evicted.Path,
					"sequence": evicted.Sequence,
					"error":    err.Error(),
				})
		}
	}

	return rec
}

// NextSequence returns the sequence number the next Add will assign. Only the
// capture loop adds records, so the peek cannot race a competing writer.
func (s *Store) NextSequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSeq
}

// Latest returns the most recent record, or ok=false when the store is empty.
func (s *Store) Latest() (ScreenshotRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return ScreenshotRecord{}, false
	}
	return s.records[len(s.records)-1], true
}

// Count returns the number of retained records.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a snapshot of the retained records, oldest first.
func (s *Store) Records() []ScreenshotRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ScreenshotRecord, len(s.records))
	copy(out, s.records)
	return out
}
