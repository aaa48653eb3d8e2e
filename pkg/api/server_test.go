package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huddleai/huddle/pkg/config"
	"github.com/huddleai/huddle/pkg/logging"
	"github.com/huddleai/huddle/pkg/meeting"
	"github.com/huddleai/huddle/pkg/model"
	"github.com/huddleai/huddle/pkg/session"
)

// fakeProvider records chat requests and returns a canned reply.
type fakeProvider struct {
	mu       sync.Mutex
	requests []model.ChatRequest
	reply    string
	err      error
}

func (f *fakeProvider) ID() string { return "fake" }

func (f *fakeProvider) ChatCompletion(_ context.Context, req model.ChatRequest) (*model.ChatResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &model.ChatResponse{
		Choices: []model.Choice{{Message: model.Message{Role: "assistant", Content: f.reply}}},
	}, nil
}

func (f *fakeProvider) recorded() []model.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ChatRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

func newTestServer(t *testing.T, provider *fakeProvider) (*httptest.Server, *session.Session) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Capture.StorageDir = t.TempDir()
	cfg.Capture.Interval = time.Hour

	sess := session.New(cfg, provider, logging.Nop())
	t.Cleanup(sess.Close)

	srv := NewServer(cfg, sess, logging.Nop())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, sess
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRootLiveness(t *testing.T) {
	ts, _ := newTestServer(t, &fakeProvider{reply: "ok"})

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "running", body["status"])
}

func TestCaptureLifecycleEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, &fakeProvider{reply: "ok"})

	var status captureStatusResponse
	decodeBody(t, postJSON(t, ts.URL+"/api/capture/start", nil), &status)
	assert.Equal(t, "started", status.Status)

	decodeBody(t, postJSON(t, ts.URL+"/api/capture/start", nil), &status)
	assert.Equal(t, "already_running", status.Status)

	resp, err := http.Get(ts.URL + "/api/capture/status")
	require.NoError(t, err)
	var state session.CaptureStatus
	decodeBody(t, resp, &state)
	assert.True(t, state.Active)

	decodeBody(t, postJSON(t, ts.URL+"/api/capture/stop", nil), &status)
	assert.Equal(t, "stopped", status.Status)

	decodeBody(t, postJSON(t, ts.URL+"/api/capture/stop", nil), &status)
	assert.Equal(t, "already_stopped", status.Status)
}

func TestAnalyzeScreenWithoutScreenshots(t *testing.T) {
	ts, _ := newTestServer(t, &fakeProvider{reply: "ok"})

	resp := postJSON(t, ts.URL+"/api/analyze/screen", map[string]string{"query": "what is on screen"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "SCREENSHOT_NOT_FOUND", body.Code)
}

func TestLatestScreenshotNotFound(t *testing.T) {
	ts, _ := newTestServer(t, &fakeProvider{reply: "ok"})

	resp, err := http.Get(ts.URL + "/api/screenshots/latest")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "SCREENSHOT_NOT_FOUND", body.Code)
}

func TestAnswerEndpoint(t *testing.T) {
	provider := &fakeProvider{reply: "The quarterly number is four million."}
	ts, sess := newTestServer(t, provider)

	sess.Timeline().Record(meeting.EventTranscript, "revenue came in at four million")

	resp := postJSON(t, ts.URL+"/api/answer", map[string]string{
		"question": "what is the revenue figure",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Answer string `json:"answer"`
		Type   string `json:"type"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "The quarterly number is four million.", body.Answer)
	assert.Equal(t, "brief", body.Type)

	reqs := provider.recorded()
	require.Len(t, reqs, 1)
	prompt, ok := reqs[0].Messages[1].Content.(string)
	require.True(t, ok)
	assert.Contains(t, prompt, "revenue came in at four million")
}

func TestAnswerEndpointRejectsEmptyQuestion(t *testing.T) {
	ts, _ := newTestServer(t, &fakeProvider{reply: "ok"})

	resp := postJSON(t, ts.URL+"/api/answer", map[string]string{"question": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "INVALID_INPUT", body.Code)
}

func TestSessionTokenEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, &fakeProvider{reply: "ok"})

	resp := postJSON(t, ts.URL+"/api/session/token", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var tok session.RealtimeToken
	decodeBody(t, resp, &tok)
	assert.NotEmpty(t, tok.Token)
	assert.Greater(t, tok.ExpiresAt, time.Now().Unix())
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, &fakeProvider{reply: "ok"})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSHeadersForAllowedOrigin(t *testing.T) {
	ts, _ := newTestServer(t, &fakeProvider{reply: "ok"})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/capture/status", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}
