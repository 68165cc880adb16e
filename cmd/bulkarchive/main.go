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

// Gmail Triage — bulk archive command
//
// Standalone CLI tool that archives every inbox message received before a
// cutoff date, without consulting the model. Intended for clearing an old
// backlog before classifier-driven triage takes over.
//
// Usage:
//
//	go run ./cmd/bulkarchive/ --before 2026-05-01 [--dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/bcem/triage/internal/config"
	"github.com/bcem/triage/internal/mailbox"
	"github.com/bcem/triage/internal/retry"
	"github.com/bcem/triage/internal/sweep"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	beforeFlag := flag.String("before", "", "Archive inbox mail received before this date, YYYY-MM-DD (required)")
	dryRunFlag := flag.Bool("dry-run", false, "List what would be archived without archiving")
	flag.Parse()

	if *beforeFlag == "" {
		fmt.Fprintf(os.Stderr, "Error: --before is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	cutoff, err := time.Parse("2006-01-02", *beforeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --before date %q: %v\n", *beforeFlag, err)
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	policy := retry.DefaultPolicy()

	httpClient, err := mailbox.AuthorizedClient(ctx, cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile)
	if err != nil {
		slog.Error("gmail authentication failed", "error", err)
		os.Exit(1)
	}
	mail, err := mailbox.New(ctx, policy, cfg.SnippetMaxLen, option.WithHTTPClient(httpClient))
	if err != nil {
		slog.Error("failed to create gmail client", "error", err)
		os.Exit(1)
	}

	// Gmail search syntax wants slash-separated dates.
	query := fmt.Sprintf("in:inbox before:%s", cutoff.Format("2006/01/02"))
	slog.Info("starting bulk archive", "query", query, "dry_run", *dryRunFlag)

	// Larger pages than the triage run: no model call per message here.
	sweeper := sweep.New(mail.Search(query, 100), mail, *dryRunFlag)

	result, err := sweeper.Run(ctx)
	if err != nil {
		slog.Error("bulk archive aborted",
			"error", err,
			"listed", result.Listed,
			"archived", result.Archived,
			"failed", result.Failed,
		)
		os.Exit(1)
	}

	slog.Info("bulk archive summary",
		"run_id", result.RunID,
		"listed", result.Listed,
		"archived", result.Archived,
		"failed", result.Failed,
		"elapsed", result.Elapsed,
	)
}
