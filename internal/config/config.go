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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store backend names accepted in configuration.
const (
	StoreBackendFile  = "file"
	StoreBackendRedis = "redis"
)

// LLMConfig holds the classifier endpoint configuration. The endpoint is any
// OpenAI-compatible chat completions API; the default targets Gemini's
// compatibility endpoint.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// StoreConfig selects and parameterises the decision-state store backend.
type StoreConfig struct {
	Backend  string // "file" or "redis"
	Path     string // file backend: newline-delimited ID file
	RedisURL string // redis backend
	RedisKey string // redis backend: set key holding kept IDs
}

// GmailConfig holds the OAuth credential file locations and paging bounds.
type GmailConfig struct {
	CredentialsFile string
	TokenFile       string
	PageSize        int64
}

// Config holds all configuration for the triage tool.
type Config struct {
	Store  StoreConfig
	Corpus string // path to the labeled example corpus (JSON)
	Gmail  GmailConfig
	LLM    LLMConfig

	// SnippetMaxLen bounds the body snippet carried into prompts.
	SnippetMaxLen int
	// PromptMaxBytes bounds the rendered prompt; exceeding it aborts the run.
	PromptMaxBytes int
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Store struct {
		Backend  string `yaml:"backend"`
		Path     string `yaml:"path"`
		RedisURL string `yaml:"redis_url"`
		RedisKey string `yaml:"redis_key"`
	} `yaml:"store"`
	Corpus string `yaml:"corpus"`
	Gmail  struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		PageSize        int64  `yaml:"page_size"`
	} `yaml:"gmail"`
	LLM struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"llm"`
	SnippetMaxLen  int `yaml:"snippet_max_len"`
	PromptMaxBytes int `yaml:"prompt_max_bytes"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables. The config file is optional; every setting has a
// default or an environment override.
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "config.yaml")

	var raw rawConfig
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}
	if err == nil {
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	}

	cfg := &Config{
		Store: StoreConfig{
			Backend:  firstNonEmpty(os.Getenv("STORE_BACKEND"), raw.Store.Backend, StoreBackendFile),
			Path:     firstNonEmpty(os.Getenv("STORE_PATH"), raw.Store.Path, "inbox_saved.txt"),
			RedisURL: firstNonEmpty(os.Getenv("REDIS_URL"), raw.Store.RedisURL, "redis://localhost:6379/0"),
			RedisKey: firstNonEmpty(raw.Store.RedisKey, "triage:kept"),
		},
		Corpus: firstNonEmpty(os.Getenv("CORPUS_PATH"), raw.Corpus, "classified_emails.json"),
		Gmail: GmailConfig{
			CredentialsFile: firstNonEmpty(raw.Gmail.CredentialsFile, "credentials.json"),
			TokenFile:       firstNonEmpty(raw.Gmail.TokenFile, "token.json"),
			PageSize:        defaultInt64(raw.Gmail.PageSize, 10),
		},
		LLM: LLMConfig{
			APIKey: firstNonEmpty(
				os.Getenv("LLM_API_KEY"),
				os.Getenv("GEMINI_API_KEY"),
				raw.LLM.APIKey,
			),
			BaseURL: firstNonEmpty(os.Getenv("LLM_BASE_URL"), raw.LLM.BaseURL,
				"https://generativelanguage.googleapis.com/v1beta/openai/"),
			Model: firstNonEmpty(os.Getenv("LLM_MODEL"), raw.LLM.Model, "gemini-2.5-flash"),
		},
		SnippetMaxLen:  defaultInt(raw.SnippetMaxLen, envOrDefaultInt("SNIPPET_MAX_LEN", 400)),
		PromptMaxBytes: defaultInt(raw.PromptMaxBytes, envOrDefaultInt("PROMPT_MAX_BYTES", 60_000)),
	}

	switch cfg.Store.Backend {
	case StoreBackendFile, StoreBackendRedis:
	default:
		return nil, fmt.Errorf("unknown store backend %q (want %q or %q)",
			cfg.Store.Backend, StoreBackendFile, StoreBackendRedis)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func defaultInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func defaultInt64(v, fallback int64) int64 {
	if v != 0 {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
