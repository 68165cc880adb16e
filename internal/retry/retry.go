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

// Package retry provides the single backoff policy applied to every network
// operation in the pipeline: page fetch, message fetch, classify, archive.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy is a bounded exponential backoff with jitter.
type Policy struct {
	MaxAttempts  uint64        // total attempts, including the first
	InitialDelay time.Duration // delay before the second attempt; doubles after
}

// DefaultPolicy returns the policy used for all provider and model calls:
// 3 attempts, 1s initial delay, doubling with randomized jitter.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: time.Second}
}

// Do runs fn, retrying transient failures under the policy. Wrap an error
// with Permanent to stop retrying immediately. Every retry is logged with
// the operation name so a run's recovery behaviour is visible to the
// operator.
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	maxRetries := uint64(0)
	if p.MaxAttempts > 0 {
		maxRetries = p.MaxAttempts - 1
	}

	attempt := 0
	notify := func(err error, delay time.Duration) {
		attempt++
		slog.Warn("retrying after transient failure",
			"op", op,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	}

	return backoff.RetryNotify(fn,
		backoff.WithMaxRetries(backoff.WithContext(b, ctx), maxRetries),
		notify,
	)
}

// Permanent marks err as non-retryable; Do returns it without further
// attempts. errors.Is/As still see the wrapped error.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
