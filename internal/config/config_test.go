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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv empties every variable Load consults so host settings cannot
// leak into assertions. t.Setenv restores the originals afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_PATH", "STORE_BACKEND", "STORE_PATH", "REDIS_URL",
		"CORPUS_PATH", "LLM_API_KEY", "GEMINI_API_KEY", "LLM_BASE_URL",
		"LLM_MODEL", "SNIPPET_MAX_LEN", "PROMPT_MAX_BYTES",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Store.Backend != StoreBackendFile {
		t.Errorf("Store.Backend = %q, want file", cfg.Store.Backend)
	}
	if cfg.Store.Path != "inbox_saved.txt" {
		t.Errorf("Store.Path = %q, want inbox_saved.txt", cfg.Store.Path)
	}
	if cfg.Corpus != "classified_emails.json" {
		t.Errorf("Corpus = %q", cfg.Corpus)
	}
	if cfg.Gmail.PageSize != 10 {
		t.Errorf("Gmail.PageSize = %d, want 10", cfg.Gmail.PageSize)
	}
	if cfg.LLM.Model != "gemini-2.5-flash" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.SnippetMaxLen != 400 {
		t.Errorf("SnippetMaxLen = %d, want 400", cfg.SnippetMaxLen)
	}
	if cfg.PromptMaxBytes != 60_000 {
		t.Errorf("PromptMaxBytes = %d, want 60000", cfg.PromptMaxBytes)
	}
}

func TestLoad_FromYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
store:
  backend: redis
  redis_url: redis://cache:6379/1
  redis_key: triage:test
corpus: /data/examples.json
gmail:
  credentials_file: /secrets/creds.json
  token_file: /secrets/token.json
  page_size: 50
llm:
  api_key: yaml-key
  model: custom-model
snippet_max_len: 200
prompt_max_bytes: 30000
`)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Store.Backend != StoreBackendRedis {
		t.Errorf("Store.Backend = %q, want redis", cfg.Store.Backend)
	}
	if cfg.Store.RedisURL != "redis://cache:6379/1" {
		t.Errorf("Store.RedisURL = %q", cfg.Store.RedisURL)
	}
	if cfg.Store.RedisKey != "triage:test" {
		t.Errorf("Store.RedisKey = %q", cfg.Store.RedisKey)
	}
	if cfg.Corpus != "/data/examples.json" {
		t.Errorf("Corpus = %q", cfg.Corpus)
	}
	if cfg.Gmail.PageSize != 50 {
		t.Errorf("Gmail.PageSize = %d, want 50", cfg.Gmail.PageSize)
	}
	if cfg.LLM.APIKey != "yaml-key" {
		t.Errorf("LLM.APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "custom-model" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.SnippetMaxLen != 200 || cfg.PromptMaxBytes != 30000 {
		t.Errorf("limits = %d/%d, want 200/30000", cfg.SnippetMaxLen, cfg.PromptMaxBytes)
	}
}

func TestLoad_ExpandsEnvInYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_TRIAGE_KEY", "expanded-secret")
	path := writeConfig(t, `
llm:
  api_key: ${TEST_TRIAGE_KEY}
`)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "expanded-secret" {
		t.Errorf("LLM.APIKey = %q, want expanded value", cfg.LLM.APIKey)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
store:
  backend: file
  path: from_yaml.txt
llm:
  api_key: yaml-key
  model: yaml-model
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("STORE_PATH", "from_env.txt")
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("GEMINI_API_KEY", "gemini-env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Path != "from_env.txt" {
		t.Errorf("Store.Path = %q, want env value", cfg.Store.Path)
	}
	if cfg.LLM.Model != "env-model" {
		t.Errorf("LLM.Model = %q, want env value", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "gemini-env-key" {
		t.Errorf("LLM.APIKey = %q, want GEMINI_API_KEY to win over the file", cfg.LLM.APIKey)
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STORE_BACKEND", "postgres")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown store backend")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, "store: [not a mapping"))

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
