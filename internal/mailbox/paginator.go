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

package mailbox

import (
	"context"
	"fmt"
	"log/slog"
)

// Summary is a message stub from a listing page; only the identifier is
// populated. Full content comes from a separate Fetch.
type Summary struct {
	ID string
}

// Paginator walks a Gmail listing in bounded pages until exhausted. It is
// lazy, finite and non-restartable: the page token lives only for the run,
// so every run re-scans the mailbox from the start and relies on the
// decision store and the mailbox's own state to skip settled messages.
type Paginator struct {
	client    *Client
	labelIDs  []string
	query     string
	pageSize  int64
	pageToken string
	done      bool
	pages     int
}

// Inbox returns a paginator over the INBOX label.
func (c *Client) Inbox(pageSize int64) *Paginator {
	return &Paginator{client: c, labelIDs: []string{"INBOX"}, pageSize: pageSize}
}

// Search returns a paginator over a Gmail search query, e.g.
// "in:inbox before:2026/05/01". Used by the bulk archiver.
func (c *Client) Search(query string, pageSize int64) *Paginator {
	return &Paginator{client: c, query: query, pageSize: pageSize}
}

// Next fetches the next page of message stubs. It returns (nil, nil) once
// the listing is exhausted. Page fetches are retried under the shared
// policy; an error from Next means the retry budget is spent and the run
// cannot claim full coverage.
func (p *Paginator) Next(ctx context.Context) ([]Summary, error) {
	if p.done {
		return nil, nil
	}

	var summaries []Summary
	err := p.client.policy.Do(ctx, "list_page", func() error {
		call := p.client.srv.Users.Messages.List(gmailUser).
			MaxResults(p.pageSize).
			Context(ctx)
		if len(p.labelIDs) > 0 {
			call = call.LabelIds(p.labelIDs...)
		}
		if p.query != "" {
			call = call.Q(p.query)
		}
		if p.pageToken != "" {
			call = call.PageToken(p.pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return classifyAPIError(err)
		}

		summaries = summaries[:0]
		for _, m := range resp.Messages {
			summaries = append(summaries, Summary{ID: m.Id})
		}
		p.pageToken = resp.NextPageToken
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list page %d: %w", p.pages+1, err)
	}

	p.pages++
	if p.pageToken == "" || len(summaries) == 0 {
		p.done = true
	}

	slog.Debug("inbox page fetched",
		"page", p.pages,
		"messages", len(summaries),
		"more", !p.done,
	)

	return summaries, nil
}
