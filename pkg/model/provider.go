package model

import (
	"context"
	"time"
)

// Provider defines the behavior required for an LLM backend/provider.
type Provider interface {
	ID() string
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// TimeoutConfigurer is an optional interface for providers that can adjust request timeouts.
type TimeoutConfigurer interface {
	SetTimeout(timeout time.Duration)
}
