package session

import (
	"github.com/huddleai/huddle/pkg/capture"
	"github.com/huddleai/huddle/pkg/config"
	"github.com/huddleai/huddle/pkg/logging"
	"github.com/huddleai/huddle/pkg/meeting"
	"github.com/huddleai/huddle/pkg/model"
)

// CaptureStatus is the externally visible capture state.
type CaptureStatus struct {
	Active          bool `json:"active"`
	ScreenshotCount int  `json:"screenshots_count"`
}

// Session wires the capture loop, screenshot store, timeline, and dispatcher
// into one explicitly owned object. All transports receive a *Session handle
// instead of reaching for globals.
type Session struct {
	id         string
	cfg        *config.Config
	logger     *logging.Logger
	store      *capture.Store
	scheduler  *capture.Scheduler
	timeline   *meeting.Timeline
	dispatcher *meeting.Dispatcher
}

// New constructs a session over the supplied provider with a fresh ID.
func New(cfg *config.Config, provider model.Provider, logger *logging.Logger) *Session {
	return NewWithID(GenerateSessionID("huddle"), cfg, provider, logger)
}

// NewWithID constructs a session under an externally chosen identifier, so
// the daemon can share one ID between the session and its log files.
func NewWithID(id string, cfg *config.Config, provider model.Provider, logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.Nop()
	}

	store := capture.NewStore(cfg.Capture.MaxScreenshots, logger)
	encoder := capture.NewEncoder(cfg.Capture.MaxDimension, cfg.Capture.JPEGQuality)
	scheduler := capture.NewScheduler(capture.NewOSCapturer(), encoder, store,
		cfg.Capture.StorageDir, cfg.Capture.Interval, logger)

	timeline := meeting.NewTimeline()
	analyzer := meeting.NewAnalyzer(provider, cfg.Models.Vision)
	classifier := meeting.NewClassifier(cfg.Answer.DetailedKeywords, cfg.Answer.BriefKeywords)
	dispatcher := meeting.NewDispatcher(timeline, store, analyzer, classifier, provider,
		meeting.DispatcherConfig{
			AnswerModel:       cfg.Models.Answer,
			BriefMaxTokens:    cfg.Answer.BriefMaxTokens,
			DetailedMaxTokens: cfg.Answer.DetailedMaxTokens,
		}, logger)

	return &Session{
		id:         id,
		cfg:        cfg,
		logger:     logger,
		store:      store,
		scheduler:  scheduler,
		timeline:   timeline,
		dispatcher: dispatcher,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Store returns the screenshot store.
func (s *Session) Store() *capture.Store {
	return s.store
}

// Timeline returns the meeting timeline.
func (s *Session) Timeline() *meeting.Timeline {
	return s.timeline
}

// Dispatcher returns the answer dispatcher.
func (s *Session) Dispatcher() *meeting.Dispatcher {
	return s.dispatcher
}

// StartCapture starts the capture loop.
func (s *Session) StartCapture() capture.Status {
	return s.scheduler.Start()
}

// StopCapture stops the capture loop, waiting for the in-flight iteration.
func (s *Session) StopCapture() capture.Status {
	return s.scheduler.Stop()
}

// CaptureState reports whether the loop is active and how many screenshots
// are retained.
func (s *Session) CaptureState() CaptureStatus {
	return CaptureStatus{
		Active:          s.scheduler.Active(),
		ScreenshotCount: s.store.Count(),
	}
}

// Close stops the capture loop if it is running.
func (s *Session) Close() {
	s.scheduler.Stop()
	s.logger.Info(logging.CategorySession, "session_closed", "session closed", map[string]any{
		"session_id": s.id,
	})
}
