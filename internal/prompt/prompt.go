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

// Package prompt renders the few-shot classification request sent to the
// model. Build is a pure function over structured inputs; it never performs
// IO and never truncates the example corpus.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bcem/triage/internal/models"
)

// ErrTooLarge is returned when the rendered prompt exceeds the configured
// byte ceiling. The caller decides the remediation (smaller corpus, shorter
// snippets); silently truncating would change model behaviour unpredictably.
var ErrTooLarge = errors.New("prompt exceeds size limit")

const preamble = `You are an email classification assistant. Your task is to decide if an email should be archived or kept in the inbox.
Based on the provided subject, sender, and body snippet, respond with either '[ARCHIVE]' or '[INBOX]'. Do not add any other text.
Here are some examples of how emails were classified:`

const guidance = `Likely topics for archival: TOS updates, promotional emails, newsletters, content that is otherwise not-actionable to contain information the user will ever need to reference.

Likely topics for inbox: anything that is actionable, important, or time-sensitive. This includes emails from friends and family, recent orders, bills, medical documentation, school notifications, etc.`

// Builder renders classification prompts under a byte ceiling.
type Builder struct {
	maxBytes int
}

// NewBuilder creates a prompt builder. maxBytes <= 0 disables the ceiling.
func NewBuilder(maxBytes int) *Builder {
	return &Builder{maxBytes: maxBytes}
}

// Build composes the preamble, the full example corpus in load order, and
// the target message into one prompt ending with a single-token instruction.
func (b *Builder) Build(examples []models.Example, msg models.Message) (string, error) {
	var sb strings.Builder

	sb.WriteString(preamble)
	sb.WriteString("\n")

	for _, ex := range examples {
		fmt.Fprintf(&sb, "Subject: %s\n", ex.Subject)
		fmt.Fprintf(&sb, "Sender: %s\n", ex.Sender)
		fmt.Fprintf(&sb, "Snippet: %s\n", ex.BodySnippet)
		fmt.Fprintf(&sb, "Reason: %s\n", ex.Reason)
		fmt.Fprintf(&sb, "Decision: [%s]\n", strings.ToUpper(string(ex.Action)))
		sb.WriteString("---\n")
	}

	sb.WriteString("\n")
	sb.WriteString(guidance)
	sb.WriteString("\n\n----\n\n")

	sb.WriteString("Now, classify the following email. Respond with exactly one bracketed token, either [ARCHIVE] or [INBOX].\n")
	fmt.Fprintf(&sb, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(&sb, "Sender: %s\n", msg.Sender)
	fmt.Fprintf(&sb, "Snippet: %s\n", msg.Snippet)
	sb.WriteString("Decision:")

	out := sb.String()
	if b.maxBytes > 0 && len(out) > b.maxBytes {
		return "", fmt.Errorf("%w: %d bytes with %d examples (limit %d)",
			ErrTooLarge, len(out), len(examples), b.maxBytes)
	}

	return out, nil
}
