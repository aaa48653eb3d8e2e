package meeting

import (
	"context"
	"encoding/base64"
	"fmt"

	hudderr "github.com/huddleai/huddle/pkg/errors"
	"github.com/huddleai/huddle/pkg/model"
)

const defaultAnalysisPrompt = "Analyze this screen capture. What's being shown? " +
	"Extract any relevant information, text, or context that might be useful " +
	"for answering questions in a meeting."

const analysisMaxTokens = 500

// Analyzer interprets screenshot bytes with a vision-capable model.
type Analyzer struct {
	provider model.Provider
	modelID  string
}

// NewAnalyzer wires a vision analyzer over the supplied provider.
func NewAnalyzer(provider model.Provider, modelID string) *Analyzer {
	return &Analyzer{provider: provider, modelID: modelID}
}

// Analyze sends a JPEG frame and an optional query to the vision model and
// returns its textual interpretation.
func (a *Analyzer) Analyze(ctx context.Context, jpegBytes []byte, query string) (string, error) {
	prompt := query
	if prompt == "" {
		prompt = defaultAnalysisPrompt
	}

	dataURI := fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(jpegBytes))

	req := model.ChatRequest{
		Model: a.modelID,
		Messages: []model.Message{
			{
				Role: "user",
				Content: []model.ContentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &model.ImageURL{URL: dataURI}},
				},
			},
		},
		MaxTokens: analysisMaxTokens,
	}

	resp, err := a.provider.ChatCompletion(ctx, req)
	if err != nil {
		return "", hudderr.Wrap(err, hudderr.ErrCodeAnalysisFailed, "vision analysis failed").
			WithContext("model", a.modelID).
			WithRetryable(true)
	}

	text := resp.Text()
	if text == "" {
		return "", hudderr.New(hudderr.ErrCodeAnalysisFailed, "vision model returned no content").
			WithContext("model", a.modelID)
	}
	return text, nil
}
