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

// Gmail Triage — corpus labeling command
//
// Fetches recent inbox messages and asks the operator to label each one as
// archive or inbox with a short reason. Labeled examples are appended to the
// corpus file used as few-shot context by the triage run.
//
// Usage:
//
//	go run ./cmd/label/ [--count 25]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"github.com/bcem/triage/internal/config"
	"github.com/bcem/triage/internal/corpus"
	"github.com/bcem/triage/internal/mailbox"
	"github.com/bcem/triage/internal/models"
	"github.com/bcem/triage/internal/retry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	countFlag := flag.Int("count", 25, "Number of recent inbox messages to label")
	flag.Parse()

	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load configuration: %v\n", err)
		os.Exit(1)
	}

	policy := retry.DefaultPolicy()

	httpClient, err := mailbox.AuthorizedClient(ctx, cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: gmail authentication: %v\n", err)
		os.Exit(1)
	}
	mail, err := mailbox.New(ctx, policy, cfg.SnippetMaxLen, option.WithHTTPClient(httpClient))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: create gmail client: %v\n", err)
		os.Exit(1)
	}

	examples, err := label(ctx, mail, *countFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(examples) == 0 {
		fmt.Println("No examples labeled.")
		return
	}

	if err := corpus.Append(cfg.Corpus, examples); err != nil {
		fmt.Fprintf(os.Stderr, "Error: append to corpus %s: %v\n", cfg.Corpus, err)
		os.Exit(1)
	}
	fmt.Printf("Appended %d examples to %s.\n", len(examples), cfg.Corpus)
}

// label walks recent inbox messages and collects operator decisions until
// count messages are offered, the inbox runs out, or the operator quits.
func label(ctx context.Context, mail *mailbox.Client, count int) ([]models.Example, error) {
	pages := mail.Inbox(int64(min(count, 25)))
	stdin := bufio.NewScanner(os.Stdin)

	var examples []models.Example
	offered := 0

	for offered < count {
		page, err := pages.Next(ctx)
		if err != nil {
			return examples, fmt.Errorf("list inbox: %w", err)
		}
		if page == nil {
			break
		}

		for _, stub := range page {
			if offered >= count {
				break
			}
			offered++

			msg, err := mail.Fetch(ctx, stub.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", stub.ID, err)
				continue
			}

			fmt.Printf("\n[%d/%d]\n", offered, count)
			fmt.Printf("Subject: %s\n", msg.Subject)
			fmt.Printf("Sender:  %s\n", msg.Sender)
			fmt.Printf("Snippet: %s\n", msg.Snippet)

			action, done := askAction(stdin)
			if done {
				return examples, nil
			}
			if action == "" {
				continue // skipped
			}

			fmt.Print("Reason: ")
			if !stdin.Scan() {
				return examples, stdin.Err()
			}
			reason := strings.TrimSpace(stdin.Text())
			if reason == "" {
				reason = "labeled by operator"
			}

			examples = append(examples, models.Example{
				Subject:     msg.Subject,
				Sender:      msg.Sender,
				BodySnippet: msg.Snippet,
				Reason:      reason,
				Action:      models.Action(action),
			})
		}
	}

	return examples, nil
}

// askAction prompts for one decision. Returns ("", true) on quit and
// ("", false) on skip.
func askAction(stdin *bufio.Scanner) (action string, quit bool) {
	for {
		fmt.Print("Label [a]rchive / [i]nbox / [s]kip / [q]uit: ")
		if !stdin.Scan() {
			return "", true
		}
		switch strings.ToLower(strings.TrimSpace(stdin.Text())) {
		case "a", "archive":
			return string(models.ActionArchive), false
		case "i", "inbox":
			return string(models.ActionInbox), false
		case "s", "skip", "":
			return "", false
		case "q", "quit":
			return "", true
		}
	}
}
