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

// Package sweep bulk-archives inbox mail matching a Gmail search query,
// typically everything received before a cutoff date. No model is involved;
// this is the blunt instrument for clearing out a backlog before the
// classifier takes over day-to-day triage.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bcem/triage/internal/mailbox"
)

// Lister yields listing pages until exhausted.
type Lister interface {
	Next(ctx context.Context) ([]mailbox.Summary, error)
}

// Archiver executes the archive action.
type Archiver interface {
	Archive(ctx context.Context, id string) error
}

// Result summarises a completed sweep.
type Result struct {
	RunID    string
	Listed   int
	Archived int
	Failed   int
	Elapsed  time.Duration
}

// Sweeper archives every message its lister yields.
type Sweeper struct {
	pages  Lister
	mail   Archiver
	dryRun bool
}

// New creates a sweeper. With dryRun set it only lists and logs.
func New(pages Lister, mail Archiver, dryRun bool) *Sweeper {
	return &Sweeper{pages: pages, mail: mail, dryRun: dryRun}
}

// Run pages through the listing and archives each message. Per-message
// failures (including permanent rejections for since-deleted messages) are
// counted and logged but do not stop the sweep; a failed page fetch does,
// since coverage would be unknown.
func (s *Sweeper) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.New().String()}
	log := slog.With("run_id", res.RunID)

	log.Info("bulk archive starting", "dry_run", s.dryRun)

	for {
		page, err := s.pages.Next(ctx)
		if err != nil {
			res.Elapsed = time.Since(start)
			return res, fmt.Errorf("listing failed: %w", err)
		}
		if page == nil {
			break
		}

		for _, stub := range page {
			res.Listed++

			if s.dryRun {
				log.Info("dry run: would archive", "message_id", stub.ID)
				continue
			}

			if err := s.mail.Archive(ctx, stub.ID); err != nil {
				res.Failed++
				if errors.Is(err, mailbox.ErrArchiveRejected) {
					log.Warn("archive rejected, skipping", "message_id", stub.ID, "error", err)
				} else {
					log.Warn("archive failed", "message_id", stub.ID, "error", err)
				}
				continue
			}

			res.Archived++
			log.Info("message archived", "message_id", stub.ID)
		}
	}

	res.Elapsed = time.Since(start)
	log.Info("bulk archive complete",
		"listed", res.Listed,
		"archived", res.Archived,
		"failed", res.Failed,
		"elapsed", res.Elapsed,
	)
	return res, nil
}
