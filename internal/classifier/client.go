// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package classifier sends classification prompts to an OpenAI-compatible
// chat completions endpoint and normalises the reply into a verdict.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/bcem/triage/internal/models"
	"github.com/bcem/triage/internal/retry"
)

// Config holds classifier client configuration.
type Config struct {
	APIKey  string
	BaseURL string // OpenAI-compatible endpoint; defaults to the provider SDK's
	Model   string
}

// Client classifies messages via the chat completions API.
type Client struct {
	api    openai.Client
	model  string
	policy retry.Policy
}

// New creates a classifier client. The API key is required; it is sourced
// from the environment by the caller.
func New(cfg Config, policy retry.Policy) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("classifier API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("classifier model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retries are owned by the shared policy, not the SDK.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		api:    openai.NewClient(opts...),
		model:  cfg.Model,
		policy: policy,
	}, nil
}

// Classify sends the prompt and parses the reply for a verdict token.
// Transport failures are retried under the shared policy; exhausting the
// budget surfaces ErrUnavailable. An unparseable reply is ErrAmbiguous.
// The caller must not act on either error path.
func (c *Client) Classify(ctx context.Context, prompt string) (models.Verdict, error) {
	var content string

	err := c.policy.Do(ctx, "classify", func() error {
		start := time.Now()
		resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: c.model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
		})
		if err != nil {
			return fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("no choices in response")
		}

		slog.Debug("classification completed",
			"model", c.model,
			"duration_ms", time.Since(start).Milliseconds(),
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
		)

		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return ParseVerdict(content)
}
