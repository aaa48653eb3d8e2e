// Package meeting maintains the rolling meeting timeline and orchestrates
// question answering over it.
package meeting

import (
	"strings"
	"sync"
	"time"
)

// EventKind tags a timeline event.
type EventKind string

const (
	EventTranscript     EventKind = "transcript"
	EventScreenAnalysis EventKind = "screen_analysis"
	EventQuestion       EventKind = "question"
	EventAnswer         EventKind = "answer"
)

// Mode classifies an answer's intended length.
type Mode string

const (
	ModeBrief    Mode = "brief"
	ModeDetailed Mode = "detailed"
)

// Event is one entry in the meeting timeline. Events are immutable after
// insertion.
type Event struct {
	Kind      EventKind `json:"type"`
	Text      string    `json:"content"`
	Mode      Mode      `json:"answer_type,omitempty"` // answers only
	Timestamp time.Time `json:"timestamp"`
}

// Timeline is the append-only sequence of meeting events. It lives only in
// process memory; the meeting history is deliberately not persisted.
type Timeline struct {
	mu        sync.Mutex
	events    []Event
	maxEvents int // 0 means unbounded
}

// TimelineOption customizes timeline construction.
type TimelineOption func(*Timeline)

// WithMaxEvents caps the timeline at n events, dropping the oldest beyond the
// cap. The default is unbounded.
func WithMaxEvents(n int) TimelineOption {
	return func(tl *Timeline) {
		tl.maxEvents = n
	}
}

// NewTimeline creates an empty timeline.
func NewTimeline(opts ...TimelineOption) *Timeline {
	tl := &Timeline{}
	for _, opt := range opts {
		opt(tl)
	}
	return tl
}

// Record appends an event with a server-assigned timestamp.
func (tl *Timeline) Record(kind EventKind, text string) Event {
	return tl.append(Event{Kind: kind, Text: text})
}

// RecordAnswer appends an answer event carrying its mode.
func (tl *Timeline) RecordAnswer(text string, mode Mode) Event {
	return tl.append(Event{Kind: EventAnswer, Text: text, Mode: mode})
}

func (tl *Timeline) append(ev Event) Event {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	ev.Timestamp = time.Now()
	tl.events = append(tl.events, ev)
	if tl.maxEvents > 0 && len(tl.events) > tl.maxEvents {
		tl.events = tl.events[len(tl.events)-tl.maxEvents:]
	}
	return ev
}

// RecentTranscript concatenates the last n transcript events in chronological
// order, newline-separated. n <= 0 returns every transcript event.
func (tl *Timeline) RecentTranscript(n int) string {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	var parts []string
	for _, ev := range tl.events {
		if ev.Kind == EventTranscript {
			parts = append(parts, ev.Text)
		}
	}
	if n > 0 && len(parts) > n {
		parts = parts[len(parts)-n:]
	}
	return strings.Join(parts, "\n")
}

// LatestScreenAnalysis returns the text of the most recent screen-analysis
// event, or ok=false when none has been recorded.
func (tl *Timeline) LatestScreenAnalysis() (string, bool) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	for i := len(tl.events) - 1; i >= 0; i-- {
		if tl.events[i].Kind == EventScreenAnalysis {
			return tl.events[i].Text, true
		}
	}
	return "", false
}

// Events returns a snapshot of the timeline, oldest first.
func (tl *Timeline) Events() []Event {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	out := make([]Event, len(tl.events))
	copy(out, tl.events)
	return out
}

// Len returns the number of recorded events.
func (tl *Timeline) Len() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return len(tl.events)
}
