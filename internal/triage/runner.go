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

// Package triage orchestrates the classification pipeline: paginated inbox
// traversal, decision-state deduplication, prompt construction, verdict
// interpretation, and the resulting archive/retain action.
//
// Processing is strictly sequential — one classification and one action at a
// time. The store's write-then-proceed ordering makes every run resumable:
// already-recorded "keep" decisions and already-archived messages define the
// state the next run picks up from.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bcem/triage/internal/classifier"
	"github.com/bcem/triage/internal/mailbox"
	"github.com/bcem/triage/internal/models"
	"github.com/bcem/triage/internal/prompt"
	"github.com/bcem/triage/internal/store"
)

// Lister yields inbox pages until exhausted.
type Lister interface {
	Next(ctx context.Context) ([]mailbox.Summary, error)
}

// Mailbox fetches message content and executes the archive action.
type Mailbox interface {
	Fetch(ctx context.Context, id string) (models.Message, error)
	Archive(ctx context.Context, id string) error
}

// Classifier obtains a verdict for a rendered prompt.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (models.Verdict, error)
}

// Summary is the user-visible outcome of one run.
type Summary struct {
	RunID     string
	Archived  int // verdict ARCHIVE, action executed
	Recorded  int // verdict INBOX, identifier durably recorded
	Skipped   int // already in the decision store, no model call made
	Deferred  int // transient or ambiguous failure; eligible next run
	Truncated bool // stopped at the per-run message cap, not full coverage
	Elapsed   time.Duration
}

// Config holds the runner's collaborators.
type Config struct {
	Pages      Lister
	Mail       Mailbox
	Classifier Classifier
	Store      store.DecisionStore
	Prompts    *prompt.Builder
	Examples   []models.Example

	// DryRun classifies but performs no archive and records nothing.
	DryRun bool
	// MaxMessages stops the run after this many classifications (0 = no cap).
	MaxMessages int
}

// Runner drives the per-message state machine over the whole inbox.
type Runner struct {
	cfg Config
}

// NewRunner creates a triage runner.
func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg}
}

// Run traverses the inbox to exhaustion. Per-message failures defer that
// message and continue; structural failures (corpus, prompt size, store
// write) abort immediately, since continuing would process the rest of the
// mailbox under a misconfiguration. The returned summary is valid even when
// err is non-nil.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{RunID: uuid.New().String()}
	log := slog.With("run_id", sum.RunID)

	log.Info("triage run starting",
		"examples", len(r.cfg.Examples),
		"dry_run", r.cfg.DryRun,
	)

	classified := 0

pages:
	for {
		page, err := r.cfg.Pages.Next(ctx)
		if err != nil {
			// A lost page means unknown coverage; silently stopping
			// early would misreport the run as complete.
			sum.Elapsed = time.Since(start)
			return sum, fmt.Errorf("inbox listing failed: %w", err)
		}
		if page == nil {
			break
		}

		for _, stub := range page {
			if r.cfg.MaxMessages > 0 && classified >= r.cfg.MaxMessages {
				sum.Truncated = true
				log.Info("message cap reached, stopping early", "cap", r.cfg.MaxMessages)
				break pages
			}

			known, err := r.cfg.Store.Contains(ctx, stub.ID)
			if err != nil {
				sum.Elapsed = time.Since(start)
				return sum, fmt.Errorf("decision store lookup: %w", err)
			}
			if known {
				sum.Skipped++
				log.Debug("skipping known message", "message_id", stub.ID, "state", "skipped_known")
				continue
			}

			classified++
			if err := r.triageOne(ctx, log, sum, stub.ID); err != nil {
				sum.Elapsed = time.Since(start)
				return sum, err
			}
		}
	}

	sum.Elapsed = time.Since(start)
	log.Info("triage run complete",
		"archived", sum.Archived,
		"recorded", sum.Recorded,
		"skipped", sum.Skipped,
		"deferred", sum.Deferred,
		"truncated", sum.Truncated,
		"elapsed", sum.Elapsed,
	)
	return sum, nil
}

// triageOne runs the state machine for a single unknown message. A non-nil
// return aborts the whole run; per-message problems are absorbed into the
// deferred count instead.
func (r *Runner) triageOne(ctx context.Context, log *slog.Logger, sum *Summary, id string) error {
	msg, err := r.cfg.Mail.Fetch(ctx, id)
	if err != nil {
		sum.Deferred++
		log.Warn("message fetch failed, deferring",
			"message_id", id,
			"state", "deferred",
			"error", err,
		)
		return nil
	}

	p, err := r.cfg.Prompts.Build(r.cfg.Examples, msg)
	if err != nil {
		// Structural: the corpus or size limit is misconfigured, and
		// every remaining message would hit the same wall.
		return fmt.Errorf("prompt construction: %w", err)
	}

	log.Debug("classifying message",
		"message_id", id,
		"subject", msg.Subject,
		"sender", msg.Sender,
		"state", "classifying",
	)

	verdict, err := r.cfg.Classifier.Classify(ctx, p)
	if err != nil {
		sum.Deferred++
		log.Warn("classification failed, deferring",
			"message_id", id,
			"state", "deferred",
			"error_kind", errorKind(err),
			"error", err,
		)
		return nil
	}

	switch verdict {
	case models.VerdictArchive:
		if r.cfg.DryRun {
			sum.Archived++
			log.Info("dry run: would archive", "message_id", id, "decision", verdict.String())
			return nil
		}
		if err := r.cfg.Mail.Archive(ctx, id); err != nil {
			sum.Deferred++
			log.Warn("archive failed, deferring",
				"message_id", id,
				"state", "deferred",
				"error_kind", errorKind(err),
				"error", err,
			)
			return nil
		}
		sum.Archived++
		log.Info("message archived",
			"message_id", id,
			"decision", verdict.String(),
			"state", "archived",
		)

	case models.VerdictInbox:
		if r.cfg.DryRun {
			sum.Recorded++
			log.Info("dry run: would record keep", "message_id", id, "decision", verdict.String())
			return nil
		}
		// The record must be durable before we move on: if the run
		// crashes right after, the message is never re-prompted.
		if err := r.cfg.Store.Record(ctx, id); err != nil {
			return fmt.Errorf("record keep decision for %s: %w", id, err)
		}
		sum.Recorded++
		log.Info("keep decision recorded",
			"message_id", id,
			"decision", verdict.String(),
			"state", "recorded",
		)
	}

	return nil
}

// errorKind names the failure class for operator-visible logs.
func errorKind(err error) string {
	switch {
	case errors.Is(err, classifier.ErrAmbiguous):
		return "ambiguous_verdict"
	case errors.Is(err, classifier.ErrUnavailable):
		return "classification_unavailable"
	case errors.Is(err, mailbox.ErrArchiveRejected):
		return "archive_rejected"
	default:
		return "transient"
	}
}
