package meeting

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/huddleai/huddle/pkg/capture"
	hudderr "github.com/huddleai/huddle/pkg/errors"
	"github.com/huddleai/huddle/pkg/logging"
	"github.com/huddleai/huddle/pkg/model"
	"github.com/huddleai/huddle/pkg/telemetry"
)

const briefSystemPrompt = "You are a helpful meeting assistant. Provide BRIEF, " +
	"concise answers (1-2 sentences max) to questions. Be direct and to the point."

const detailedSystemPrompt = "You are a helpful meeting assistant. Provide DETAILED, " +
	"comprehensive answers when needed, but keep them professional and " +
	"meeting-appropriate. For simple questions, be brief."

// transcriptWindow bounds the aggregator-supplied transcript fallback to the
// most recent transcript events.
const transcriptWindow = 20

// AnswerResult is the outcome of a dispatched question.
type AnswerResult struct {
	Text      string    `json:"answer"`
	Mode      Mode      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// ScreenAnalysis is the outcome of an on-demand screen interpretation.
type ScreenAnalysis struct {
	Context   string    `json:"context"`
	Timestamp time.Time `json:"timestamp"`
}

// DispatcherConfig carries the knobs the dispatcher needs.
type DispatcherConfig struct {
	AnswerModel       string
	BriefMaxTokens    int
	DetailedMaxTokens int
}

// Dispatcher ties a question to an answer: it pulls screen context, classifies
// the question, assembles the prompt, and invokes the chat model.
type Dispatcher struct {
	timeline   *Timeline
	store      *capture.Store
	analyzer   *Analyzer
	classifier *Classifier
	provider   model.Provider
	cfg        DispatcherConfig
	logger     *logging.Logger
}

// NewDispatcher wires an answer dispatcher over its collaborators.
func NewDispatcher(timeline *Timeline, store *capture.Store, analyzer *Analyzer, classifier *Classifier, provider model.Provider, cfg DispatcherConfig, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dispatcher{
		timeline:   timeline,
		store:      store,
		analyzer:   analyzer,
		classifier: classifier,
		provider:   provider,
		cfg:        cfg,
		logger:     logger,
	}
}

// AnalyzeScreen interprets the most recent screenshot, optionally directed by
// a query, and records the analysis on the timeline.
func (d *Dispatcher) AnalyzeScreen(ctx context.Context, query string) (ScreenAnalysis, error) {
	rec, ok := d.store.Latest()
	if !ok {
		return ScreenAnalysis{}, hudderr.New(hudderr.ErrCodeScreenshotNotFound, "no screenshots available")
	}

	jpegBytes, err := os.ReadFile(rec.Path)
	if err != nil {
		telemetry.AnalysisFailuresTotal.Inc()
		return ScreenAnalysis{}, hudderr.Wrap(err, hudderr.ErrCodeAnalysisFailed, "reading screenshot").
			WithContext("path", rec.Path)
	}

	text, err := d.analyzer.Analyze(ctx, jpegBytes, query)
	if err != nil {
		telemetry.AnalysisFailuresTotal.Inc()
		d.logger.Error(logging.CategoryAnalysis, "analysis_failed", "vision call failed", map[string]any{
			"sequence": rec.Sequence,
			"error":    err.Error(),
		})
		return ScreenAnalysis{}, err
	}

	ev := d.timeline.Record(EventScreenAnalysis, text)
	d.logger.Info(logging.CategoryAnalysis, "screen_analyzed", "screen context refreshed", map[string]any{
		"sequence": rec.Sequence,
	})
	return ScreenAnalysis{Context: text, Timestamp: ev.Timestamp}, nil
}

// Answer produces an answer for question. The transcript argument is the
// caller-supplied conversation window; when empty, the timeline's own recent
// transcript is used. A missing or failing screen analysis degrades to no
// screen context rather than aborting the answer.
func (d *Dispatcher) Answer(ctx context.Context, question, transcript string) (AnswerResult, error) {
	if strings.TrimSpace(question) == "" {
		return AnswerResult{}, hudderr.New(hudderr.ErrCodeInvalidInput, "question must not be empty")
	}

	if transcript == "" {
		transcript = d.timeline.RecentTranscript(transcriptWindow)
	}

	screenContext, ok := d.timeline.LatestScreenAnalysis()
	if !ok {
		if analysis, err := d.AnalyzeScreen(ctx, ""); err == nil {
			screenContext = analysis.Context
		}
		// Analysis failures degrade to an answer without screen context.
	}

	mode := d.classifier.Classify(question)

	systemPrompt := detailedSystemPrompt
	maxTokens := d.cfg.DetailedMaxTokens
	if mode == ModeBrief {
		systemPrompt = briefSystemPrompt
		maxTokens = d.cfg.BriefMaxTokens
	}

	var contextParts []string
	if transcript != "" {
		contextParts = append(contextParts, "Recent conversation: "+transcript)
	}
	if screenContext != "" {
		contextParts = append(contextParts, "Screen context: "+screenContext)
	}
	userPrompt := "Context:\n" + strings.Join(contextParts, "\n") + "\n\nQuestion: " + question

	d.timeline.Record(EventQuestion, question)

	resp, err := d.provider.ChatCompletion(ctx, model.ChatRequest{
		Model: d.cfg.AnswerModel,
		Messages: []model.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		d.logger.Error(logging.CategoryAnswer, "completion_failed", "chat call failed", map[string]any{
			"mode":  string(mode),
			"error": err.Error(),
		})
		return AnswerResult{}, hudderr.Wrap(err, hudderr.ErrCodeCompletionFailed, "answer completion failed").
			WithContext("model", d.cfg.AnswerModel).
			WithRetryable(true)
	}

	text := resp.Text()
	ev := d.timeline.RecordAnswer(text, mode)
	telemetry.AnswersTotal.WithLabelValues(string(mode)).Inc()
	d.logger.Info(logging.CategoryAnswer, "answer_generated", "answered question", map[string]any{
		"mode":   string(mode),
		"tokens": resp.Usage.TotalTokens,
	})

	return AnswerResult{Text: text, Mode: mode, Timestamp: ev.Timestamp}, nil
}
