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

// Package corpus loads the labeled example set used as few-shot context.
//
// The corpus is a JSON array of records with subject, sender, body_snippet,
// reason and action fields. Order is preserved exactly as stored — it shapes
// the prompt and therefore model behaviour — and records are never
// deduplicated. Any malformed record fails the whole load; a run must not
// proceed under a broken corpus.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/bcem/triage/internal/models"
)

// Load reads and validates the example corpus at path.
func Load(path string) ([]models.Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file %s: %w", path, err)
	}

	var examples []models.Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("parse corpus JSON %s: %w", path, err)
	}

	for i, ex := range examples {
		if err := validate(ex); err != nil {
			return nil, fmt.Errorf("corpus record %d: %w", i, err)
		}
	}

	return examples, nil
}

// Append adds examples to the corpus file, preserving existing records and
// their order. Used by the labeling tool.
func Append(path string, newExamples []models.Example) error {
	existing, err := Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	for i, ex := range newExamples {
		if err := validate(ex); err != nil {
			return fmt.Errorf("new record %d: %w", i, err)
		}
	}

	combined := append(existing, newExamples...)
	data, err := json.MarshalIndent(combined, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal corpus: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

func validate(ex models.Example) error {
	if ex.Subject == "" {
		return fmt.Errorf("missing subject")
	}
	if ex.Sender == "" {
		return fmt.Errorf("missing sender")
	}
	if ex.Reason == "" {
		return fmt.Errorf("missing reason")
	}
	if !ex.Action.Valid() {
		return fmt.Errorf("invalid action %q (want %q or %q)",
			ex.Action, models.ActionArchive, models.ActionInbox)
	}
	return nil
}
