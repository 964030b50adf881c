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


package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/oneiro/ai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider creates sessions and embedders against OpenAI-compatible services.
// It implements both ai.SessionFactory and ai.EmbedderFactory.
type Provider struct {
	config *ai.Config
	logger *slog.Logger
}

var (
	_ ai.SessionFactory  = (*Provider)(nil)
	_ ai.EmbedderFactory = (*Provider)(nil)
)

// NewProvider creates a new provider with OpenAI-compatible services.
// The config is validated and normalized before use.
func NewProvider(config *ai.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Provider{
		config: config,
		logger: slog.Default().With("component", "openai-provider"),
	}, nil
}

// NewSession creates a chat session bound to credential. Each session owns
// its own client so credentials never share connection state.
func (p *Provider) NewSession(ctx context.Context, systemPrompt, credential string) (ai.Session, error) {
	if credential == "" {
		return nil, ai.ErrCredentialRequired
	}

	client, err := openai.New(
		openai.WithBaseURL(p.config.ChatHost),
		openai.WithToken(credential),
		openai.WithModel(p.config.ChatModel),
	)
	if err != nil {
		p.logger.Error("failed to create chat client", "host", p.config.ChatHost, "err", err)
		return nil, err
	}

	p.logger.Debug("created session", "model", p.config.ChatModel)
	return newSession(client, systemPrompt, p.config), nil
}

// NewEmbedder creates an embedder for model on the configured embedding host.
func (p *Provider) NewEmbedder(model string) (ai.Embedder, error) {
	return newEmbedder(p.config, model)
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
