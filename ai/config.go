// Copyright 2025 Poiesic Systems
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


package ai

import (
	"errors"
	"strings"
	"time"
)

const (
	// DefaultChatHost is Gemini's OpenAI-compatible endpoint.
	DefaultChatHost = "https://generativelanguage.googleapis.com/v1beta/openai"

	// DefaultEmbeddingHost is a local OpenAI-compatible embedding server.
	DefaultEmbeddingHost = "http://localhost:11434/v1"
)

// Config holds configuration for the completion and embedding services.
type Config struct {
	// ChatHost is the base URL for the chat completion API.
	// Example: "https://generativelanguage.googleapis.com/v1beta/openai"
	ChatHost string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// ChatModel is the model identifier used by completion sessions.
	// Example: "gemini-2.0-flash", "qwen2.5:3b"
	ChatModel string

	// Temperature is the sampling temperature passed on every chat call.
	// Default: 0.7
	Temperature float64

	// RequestDelay is the pause a session takes after every call so a single
	// credential is not hammered.
	// Default: 1s
	RequestDelay time.Duration

	// CallTimeout bounds a single completion call. Expiry is treated as that
	// call's failure.
	// Default: 60s
	CallTimeout time.Duration

	// HistoryLimit is the number of prompt/reply exchanges a session keeps in
	// addition to its system prompt. Zero keeps everything.
	// Default: 20
	HistoryLimit int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithChatHost sets the chat completion host URL.
func WithChatHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithHost sets both chat and embedding hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
		c.EmbeddingHost = host
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithRequestDelay sets the pause taken after every completion call.
func WithRequestDelay(delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestDelay = delay
	}
}

// WithCallTimeout sets the per-call timeout.
func WithCallTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.CallTimeout = timeout
	}
}

// WithHistoryLimit sets how many exchanges a session remembers.
func WithHistoryLimit(limit int) ConfigOption {
	return func(c *Config) {
		c.HistoryLimit = limit
	}
}

// DefaultConfig returns a Config that talks to Gemini for chat and to a
// local OpenAI-compatible server for embeddings.
func DefaultConfig() *Config {
	return &Config{
		ChatHost:      DefaultChatHost,
		EmbeddingHost: DefaultEmbeddingHost,
		ChatModel:     "gemini-2.0-flash",
		Temperature:   0.7,
		RequestDelay:  time.Second,
		CallTimeout:   60 * time.Second,
		HistoryLimit:  20,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithChatModel("qwen2.5:3b"),
//       WithRequestDelay(0),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Hosts without a version segment get a /v1 suffix, which is required by
// most OpenAI-compatible APIs (Ollama, LocalAI, vLLM). Hosts that already
// carry a version such as Gemini's /v1beta/openai are left alone.
func (c *Config) Normalize() {
	c.ChatHost = normalizeHost(c.ChatHost)
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
}

func normalizeHost(host string) string {
	if host == "" {
		return host
	}
	host = strings.TrimSuffix(host, "/")
	if strings.Contains(host, "/v1") {
		return host
	}
	return host + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.ChatHost == "" {
		return errors.New("ai config: ChatHost is required")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.RequestDelay < 0 {
		return errors.New("ai config: RequestDelay cannot be negative")
	}
	if c.CallTimeout <= 0 {
		return errors.New("ai config: CallTimeout must be positive")
	}
	if c.HistoryLimit < 0 {
		return errors.New("ai config: HistoryLimit cannot be negative")
	}
	return nil
}
