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

// Gmail Triage — classification run
//
// Walks the inbox, asks the model for a keep/archive verdict on every
// message not already confirmed "keep", archives or records accordingly,
// and prints a run summary. Safe to re-run at any time: already-confirmed
// and already-archived messages are skipped, deferred messages are retried.
//
// Usage:
//
//	go run ./cmd/triage/ [--dry-run] [--max-messages N]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/bcem/triage/internal/classifier"
	"github.com/bcem/triage/internal/config"
	"github.com/bcem/triage/internal/corpus"
	"github.com/bcem/triage/internal/mailbox"
	"github.com/bcem/triage/internal/prompt"
	"github.com/bcem/triage/internal/retry"
	"github.com/bcem/triage/internal/store"
	"github.com/bcem/triage/internal/triage"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	dryRunFlag := flag.Bool("dry-run", false, "Classify only; perform no archive and record nothing")
	maxMessagesFlag := flag.Int("max-messages", 0, "Stop after N classifications (0 = whole inbox)")
	flag.Parse()

	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	ctx := context.Background()

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	policy := retry.DefaultPolicy()

	// --- Decision-State Store ---
	decisions, err := openStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open decision store", "error", err)
		os.Exit(1)
	}
	defer decisions.Close()

	// --- Example Corpus ---
	examples, err := corpus.Load(cfg.Corpus)
	if err != nil {
		slog.Error("failed to load example corpus", "path", cfg.Corpus, "error", err)
		os.Exit(1)
	}
	slog.Info("example corpus loaded", "path", cfg.Corpus, "examples", len(examples))

	// --- Gmail Client ---
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

	// --- Classifier ---
	model, err := classifier.New(classifier.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	}, policy)
	if err != nil {
		slog.Error("failed to create classifier", "error", err)
		os.Exit(1)
	}

	// --- Run ---
	runner := triage.NewRunner(triage.Config{
		Pages:       mail.Inbox(cfg.Gmail.PageSize),
		Mail:        mail,
		Classifier:  model,
		Store:       decisions,
		Prompts:     prompt.NewBuilder(cfg.PromptMaxBytes),
		Examples:    examples,
		DryRun:      *dryRunFlag,
		MaxMessages: *maxMessagesFlag,
	})

	summary, err := runner.Run(ctx)
	if err != nil {
		slog.Error("triage run aborted",
			"error", err,
			"archived", summary.Archived,
			"recorded", summary.Recorded,
			"skipped", summary.Skipped,
			"deferred", summary.Deferred,
		)
		os.Exit(1)
	}

	slog.Info("run summary",
		"run_id", summary.RunID,
		"archived", summary.Archived,
		"recorded", summary.Recorded,
		"skipped", summary.Skipped,
		"deferred", summary.Deferred,
		"truncated", summary.Truncated,
		"elapsed", summary.Elapsed,
	)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.DecisionStore, error) {
	switch cfg.Backend {
	case config.StoreBackendRedis:
		s, err := store.OpenRedis(ctx, cfg.RedisURL, cfg.RedisKey)
		if err != nil {
			return nil, err
		}
		slog.Info("decision store opened", "backend", cfg.Backend, "key", cfg.RedisKey)
		return s, nil
	default:
		s, err := store.OpenFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("decision store opened", "backend", cfg.Backend, "path", cfg.Path, "known_ids", s.Len())
		return s, nil
	}
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
