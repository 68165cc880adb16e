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

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the decision set in a Redis SET. It serves deployments
// where the triage tool runs from more than one machine against the same
// mailbox; the file backend remains the default for single-host use.
//
// Redis persists SADD before replying when configured with AOF
// appendfsync=always; with weaker persistence settings the durability
// guarantee is Redis's, not ours.
type RedisStore struct {
	rdb *redis.Client
	key string
}

var _ DecisionStore = (*RedisStore)(nil)

// OpenRedis connects to the Redis URL and verifies the connection.
func OpenRedis(ctx context.Context, url, key string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{rdb: rdb, key: key}, nil
}

// Contains checks set membership.
func (s *RedisStore) Contains(ctx context.Context, id string) (bool, error) {
	ok, err := s.rdb.SIsMember(ctx, s.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("decision SISMEMBER: %w", err)
	}
	return ok, nil
}

// Record adds the identifier to the set.
func (s *RedisStore) Record(ctx context.Context, id string) error {
	if err := s.rdb.SAdd(ctx, s.key, id).Err(); err != nil {
		return fmt.Errorf("decision SADD: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
