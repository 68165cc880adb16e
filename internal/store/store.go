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

// Package store persists the set of message identifiers previously confirmed
// as "keep", so later runs never re-prompt for them.
//
// An identifier appears in the store if and only if the most recent verdict
// for it was INBOX. Archived identifiers are never recorded — archiving is
// observable directly from mailbox state. There is no removal operation:
// once recorded, an identifier is never re-classified.
package store

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// DecisionStore is the durable keep-decision set consumed by the triage loop.
type DecisionStore interface {
	// Contains reports whether id was confirmed "keep" in a past or
	// current run.
	Contains(ctx context.Context, id string) (bool, error)

	// Record durably appends id. When Record returns, a crash must not
	// lose the entry: the next run's Contains sees it.
	Record(ctx context.Context, id string) error

	Close() error
}

// FileStore is the default backend: a newline-delimited list of message
// identifiers, loaded fully into memory at open, appended and fsynced on
// every Record.
type FileStore struct {
	file *os.File
	seen map[string]struct{}
}

var _ DecisionStore = (*FileStore)(nil)

// OpenFile opens (creating if absent) the decision file at path and loads
// every identifier in it. Blank lines are ignored.
func OpenFile(path string) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open decision store %s: %w", path, err)
	}

	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		seen[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("read decision store %s: %w", path, err)
	}

	// Leave the file positioned at the end for appends.
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek decision store %s: %w", path, err)
	}

	return &FileStore{file: f, seen: seen}, nil
}

// Contains checks the in-memory set; the file is the source of truth only
// across process restarts.
func (s *FileStore) Contains(_ context.Context, id string) (bool, error) {
	_, ok := s.seen[id]
	return ok, nil
}

// Record appends one identifier per line and syncs before returning, so a
// crash immediately after Record cannot lose the decision.
func (s *FileStore) Record(_ context.Context, id string) error {
	if _, ok := s.seen[id]; ok {
		return nil
	}

	if _, err := fmt.Fprintln(s.file, id); err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync decision store: %w", err)
	}

	s.seen[id] = struct{}{}
	return nil
}

// Len reports how many identifiers are loaded. Used for run logging.
func (s *FileStore) Len() int {
	return len(s.seen)
}

// Close closes the underlying file.
func (s *FileStore) Close() error {
	return s.file.Close()
}
