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

// Package models defines the data structures shared across the triage pipeline.
package models

import "fmt"

// Message is one inbox message as seen by the triage loop. Immutable once
// fetched; the ID is the provider-assigned message identifier.
type Message struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Sender  string `json:"sender"`
	Snippet string `json:"snippet"`
}

// Action is the labeled outcome on a training example.
type Action string

const (
	ActionArchive Action = "archive"
	ActionInbox   Action = "inbox"
)

// Valid reports whether the action is one of the two known labels.
func (a Action) Valid() bool {
	return a == ActionArchive || a == ActionInbox
}

// Example is one labeled email used as few-shot context for the model.
//
// The JSON field names MUST match the records in the example corpus file
// (classified_emails.json); the labeling tool appends records in this shape.
type Example struct {
	Subject     string `json:"subject"`
	Sender      string `json:"sender"`
	BodySnippet string `json:"body_snippet"`
	Reason      string `json:"reason"`
	Action      Action `json:"action"`
}

// Verdict is the model's keep/archive decision for one message. It exists
// only for the duration of the action it triggers.
type Verdict int

const (
	VerdictArchive Verdict = iota
	VerdictInbox
)

func (v Verdict) String() string {
	switch v {
	case VerdictArchive:
		return "ARCHIVE"
	case VerdictInbox:
		return "INBOX"
	default:
		return fmt.Sprintf("Verdict(%d)", int(v))
	}
}
