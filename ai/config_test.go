package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, DefaultChatHost, cfg.ChatHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "gemini-2.0-flash", cfg.ChatModel)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, time.Second, cfg.RequestDelay)
	assert.Equal(t, 60*time.Second, cfg.CallTimeout)
	assert.Equal(t, 20, cfg.HistoryLimit)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, DefaultChatHost, cfg.ChatHost)
		assert.Equal(t, DefaultEmbeddingHost, cfg.EmbeddingHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.ChatHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithChatHost("http://chat:8080/v1"),
			WithEmbeddingHost("http://embed:9090/v1"),
		)

		assert.Equal(t, "http://chat:8080/v1", cfg.ChatHost)
		assert.Equal(t, "http://embed:9090/v1", cfg.EmbeddingHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithChatModel("qwen2.5:3b"),
			WithTemperature(0.2),
			WithRequestDelay(0),
			WithCallTimeout(5*time.Second),
			WithHistoryLimit(4),
		)

		assert.Equal(t, "qwen2.5:3b", cfg.ChatModel)
		assert.Equal(t, 0.2, cfg.Temperature)
		assert.Equal(t, time.Duration(0), cfg.RequestDelay)
		assert.Equal(t, 5*time.Second, cfg.CallTimeout)
		assert.Equal(t, 4, cfg.HistoryLimit)
	})

	t.Run("later options override earlier ones", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://first:8080/v1"),
			WithChatHost("http://second:8080/v1"),
		)

		assert.Equal(t, "http://second:8080/v1", cfg.ChatHost)
		assert.Equal(t, "http://first:8080/v1", cfg.EmbeddingHost)
	})
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{name: "already normalized", host: "http://localhost:11434/v1", want: "http://localhost:11434/v1"},
		{name: "missing suffix", host: "http://localhost:11434", want: "http://localhost:11434/v1"},
		{name: "trailing slash", host: "http://localhost:11434/", want: "http://localhost:11434/v1"},
		{name: "trailing slash after v1", host: "http://localhost:11434/v1/", want: "http://localhost:11434/v1"},
		{name: "versioned path kept", host: DefaultChatHost, want: DefaultChatHost},
		{name: "empty stays empty", host: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{ChatHost: tt.host, EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.ChatHost)
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", modify: func(c *Config) {}},
		{name: "missing chat host", modify: func(c *Config) { c.ChatHost = "" }, wantErr: "ChatHost is required"},
		{name: "missing embedding host", modify: func(c *Config) { c.EmbeddingHost = "" }, wantErr: "EmbeddingHost is required"},
		{name: "missing chat model", modify: func(c *Config) { c.ChatModel = "" }, wantErr: "ChatModel is required"},
		{name: "negative temperature", modify: func(c *Config) { c.Temperature = -0.1 }, wantErr: "Temperature"},
		{name: "temperature too high", modify: func(c *Config) { c.Temperature = 2.5 }, wantErr: "Temperature"},
		{name: "negative delay", modify: func(c *Config) { c.RequestDelay = -time.Second }, wantErr: "RequestDelay"},
		{name: "zero delay allowed", modify: func(c *Config) { c.RequestDelay = 0 }},
		{name: "zero timeout", modify: func(c *Config) { c.CallTimeout = 0 }, wantErr: "CallTimeout"},
		{name: "negative history", modify: func(c *Config) { c.HistoryLimit = -1 }, wantErr: "HistoryLimit"},
		{name: "unlimited history allowed", modify: func(c *Config) { c.HistoryLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("validate normalizes hosts", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingHost("http://embed:9090"))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://embed:9090/v1", cfg.EmbeddingHost)
	})
}
