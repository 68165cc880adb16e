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

// Package mailbox wraps the Gmail API: paginated inbox listing, metadata
// fetches, and the archive action. Authentication is handled separately by
// AuthorizedClient; everything here assumes a ready-to-use authorized client.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/bcem/triage/internal/models"
	"github.com/bcem/triage/internal/retry"
)

// ErrArchiveRejected means the provider permanently refused the archive
// action, e.g. the message no longer exists. Not retryable; the triage loop
// defers the message and continues.
var ErrArchiveRejected = errors.New("archive rejected")

const gmailUser = "me"

// Client performs mailbox operations against the Gmail API for the
// authorized user. All network calls are retried under the shared policy.
type Client struct {
	srv           *gmail.Service
	policy        retry.Policy
	snippetMaxLen int
}

// New creates a mailbox client. Extra options (endpoint overrides) are
// passed through to the Gmail service; tests use them to point at a fake.
func New(ctx context.Context, policy retry.Policy, snippetMaxLen int, opts ...option.ClientOption) (*Client, error) {
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Client{srv: srv, policy: policy, snippetMaxLen: snippetMaxLen}, nil
}

// Fetch retrieves one message's subject, sender and snippet. The snippet is
// truncated to the configured bound before it reaches the prompt builder.
func (c *Client) Fetch(ctx context.Context, id string) (models.Message, error) {
	var msg *gmail.Message

	err := c.policy.Do(ctx, "fetch_message", func() error {
		var err error
		msg, err = c.srv.Users.Messages.Get(gmailUser, id).
			Format("metadata").
			MetadataHeaders("Subject", "From").
			Context(ctx).
			Do()
		return classifyAPIError(err)
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("fetch message %s: %w", id, err)
	}

	out := models.Message{
		ID:      id,
		Snippet: truncate(msg.Snippet, c.snippetMaxLen),
	}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				out.Subject = h.Value
			case "From":
				out.Sender = h.Value
			}
		}
	}

	return out, nil
}

// Archive removes the INBOX label, which is how Gmail archives a message.
// Transient failures are retried; a 404/410 surfaces ErrArchiveRejected
// without retrying.
func (c *Client) Archive(ctx context.Context, id string) error {
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{"INBOX"}}

	err := c.policy.Do(ctx, "archive", func() error {
		_, err := c.srv.Users.Messages.Modify(gmailUser, id, req).Context(ctx).Do()

		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone {
				return retry.Permanent(fmt.Errorf("%w: message %s: %v", ErrArchiveRejected, id, err))
			}
		}
		return classifyAPIError(err)
	})
	if err != nil {
		return err
	}

	slog.Debug("message archived", "message_id", id)
	return nil
}

// classifyAPIError marks non-retryable API failures permanent so the backoff
// policy gives up immediately. Rate limits (429) and server errors stay
// retryable; auth and request errors do not heal on retry.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return err
		}
		return retry.Permanent(err)
	}
	// Network-level failures are retryable.
	return err
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	// Don't split a multi-byte rune at the boundary.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
