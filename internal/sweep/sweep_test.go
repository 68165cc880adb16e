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

package sweep

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bcem/triage/internal/mailbox"
)

type fakePages struct {
	pages [][]mailbox.Summary
	err   error
	calls int
}

func (f *fakePages) Next(ctx context.Context) ([]mailbox.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.pages) {
		return nil, nil
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

type fakeArchiver struct {
	errs     map[string]error
	archived []string
}

func (f *fakeArchiver) Archive(ctx context.Context, id string) error {
	if err := f.errs[id]; err != nil {
		return err
	}
	f.archived = append(f.archived, id)
	return nil
}

func summaries(ids ...string) []mailbox.Summary {
	out := make([]mailbox.Summary, len(ids))
	for i, id := range ids {
		out[i] = mailbox.Summary{ID: id}
	}
	return out
}

func TestRun_ArchivesAllPages(t *testing.T) {
	pages := &fakePages{pages: [][]mailbox.Summary{
		summaries("m1", "m2"),
		summaries("m3"),
	}}
	mail := &fakeArchiver{}

	res, err := New(pages, mail, false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Listed != 3 || res.Archived != 3 || res.Failed != 0 {
		t.Errorf("result = %+v, want 3 listed, 3 archived, 0 failed", res)
	}
	if len(mail.archived) != 3 {
		t.Errorf("archived = %v, want 3 messages", mail.archived)
	}
}

func TestRun_CountsRejectionsAndContinues(t *testing.T) {
	pages := &fakePages{pages: [][]mailbox.Summary{summaries("m1", "m2", "m3")}}
	mail := &fakeArchiver{errs: map[string]error{
		"m2": fmt.Errorf("%w: already deleted", mailbox.ErrArchiveRejected),
	}}

	res, err := New(pages, mail, false).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Archived != 2 || res.Failed != 1 {
		t.Errorf("result = %+v, want 2 archived, 1 failed", res)
	}
}

func TestRun_AbortsOnPageError(t *testing.T) {
	pageErr := errors.New("token expired")
	_, err := New(&fakePages{err: pageErr}, &fakeArchiver{}, false).Run(context.Background())
	if !errors.Is(err, pageErr) {
		t.Fatalf("error = %v, want wrapped page error", err)
	}
}

func TestRun_DryRunArchivesNothing(t *testing.T) {
	pages := &fakePages{pages: [][]mailbox.Summary{summaries("m1", "m2")}}
	mail := &fakeArchiver{}

	res, err := New(pages, mail, true).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Listed != 2 || res.Archived != 0 {
		t.Errorf("result = %+v, want 2 listed, 0 archived", res)
	}
	if len(mail.archived) != 0 {
		t.Errorf("archived = %v, want none in dry run", mail.archived)
	}
}
