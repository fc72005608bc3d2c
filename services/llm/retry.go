// Copyright (C) 2025 Spec2Test Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// RetryingClient wraps another Client and retries failed generations
// with exponential backoff and jitter. Context cancellation stops the
// retry loop immediately.
type RetryingClient struct {
	inner       Client
	maxAttempts int
	baseDelay   time.Duration
}

// NewRetryingClient wraps inner with up to maxAttempts attempts.
// maxAttempts below 1 is treated as 1.
func NewRetryingClient(inner Client, maxAttempts int, baseDelay time.Duration) *RetryingClient {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetryingClient{inner: inner, maxAttempts: maxAttempts, baseDelay: baseDelay}
}

// Generate implements the Client interface
func (r *RetryingClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		out, err := r.inner.Generate(ctx, prompt, params)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt == r.maxAttempts {
			break
		}

		delay := r.baseDelay << (attempt - 1)
		delay += time.Duration(rand.Int63n(int64(r.baseDelay))) // jitter
		slog.Warn("LLM generation failed, retrying",
			"attempt", attempt, "max_attempts", r.maxAttempts, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", r.maxAttempts, lastErr)
}
