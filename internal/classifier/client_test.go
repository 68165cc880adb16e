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

package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bcem/triage/internal/models"
	"github.com/bcem/triage/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 2, InitialDelay: time.Millisecond}
}

func completionResponse(content string) string {
	body := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     42,
			"completion_tokens": 3,
			"total_tokens":      45,
		},
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		APIKey:  "test-key",
		BaseURL: server.URL + "/",
		Model:   "test-model",
	}, fastPolicy())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestClassify_Archive(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionResponse("[ARCHIVE]"))
	}))

	verdict, err := client.Classify(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if verdict != models.VerdictArchive {
		t.Errorf("verdict = %v, want VerdictArchive", verdict)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("request path = %q, want /chat/completions", gotPath)
	}
}

func TestClassify_Inbox(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionResponse("After review: [INBOX]"))
	}))

	verdict, err := client.Classify(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if verdict != models.VerdictInbox {
		t.Errorf("verdict = %v, want VerdictInbox", verdict)
	}
}

func TestClassify_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionResponse("[ARCHIVE]"))
	}))

	verdict, err := client.Classify(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if verdict != models.VerdictArchive {
		t.Errorf("verdict = %v, want VerdictArchive", verdict)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestClassify_UnavailableAfterExhaustion(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
	}))

	_, err := client.Classify(context.Background(), "classify this")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestClassify_AmbiguousReply(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionResponse("I am not sure about this one."))
	}))

	_, err := client.Classify(context.Background(), "classify this")
	if !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("error = %v, want ErrAmbiguous", err)
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(Config{Model: "m"}, fastPolicy()); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestNew_RequiresModel(t *testing.T) {
	if _, err := New(Config{APIKey: "k"}, fastPolicy()); err == nil {
		t.Error("expected error for missing model")
	}
}
