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
	"sync"
	"time"

	"github.com/poiesic/oneiro/ai"
	"github.com/tmc/langchaingo/llms"
)

// Session implements ai.Session on top of a langchaingo chat model.
// The full conversation is resent on every call, so the remote service sees
// the same context a stateful chat would.
type Session struct {
	client       llms.Model
	temperature  float64
	requestDelay time.Duration
	callTimeout  time.Duration
	historyLimit int

	mu      sync.Mutex
	history []llms.MessageContent // history[0] is the system prompt
	logger  *slog.Logger
}

var _ ai.Session = (*Session)(nil)

func newSession(client llms.Model, systemPrompt string, config *ai.Config) *Session {
	return &Session{
		client:       client,
		temperature:  config.Temperature,
		requestDelay: config.RequestDelay,
		callTimeout:  config.CallTimeout,
		historyLimit: config.HistoryLimit,
		history:      []llms.MessageContent{textMessage(llms.ChatMessageTypeSystem, systemPrompt)},
		logger:       slog.Default().With("component", "openai-session"),
	}
}

// Send appends prompt to the conversation and returns the model's reply.
// A failed call leaves the history untouched. Every call that reaches the
// service is followed by the configured request delay, during which the
// session stays locked.
func (s *Session) Send(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	human := textMessage(llms.ChatMessageTypeHuman, prompt)
	content := make([]llms.MessageContent, 0, len(s.history)+1)
	content = append(content, s.history...)
	content = append(content, human)

	response, err := s.generate(ctx, content)
	defer s.pause(ctx)
	if err != nil {
		s.logger.Error("failed to generate content", "err", err)
		return "", err
	}
	if len(response.Choices) < 1 {
		s.logger.Warn("no choices returned from model")
		return "", ai.ErrEmptyResponse
	}

	reply := cleanReply(response.Choices[0].Content)
	s.history = append(s.history, human, textMessage(llms.ChatMessageTypeAI, reply))
	s.trim()

	s.logger.Debug("completion received", "promptLength", len(prompt), "replyLength", len(reply))
	return reply, nil
}

func (s *Session) generate(ctx context.Context, content []llms.MessageContent) (*llms.ContentResponse, error) {
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}
	return s.client.GenerateContent(ctx, content, llms.WithTemperature(s.temperature))
}

// trim keeps the system prompt plus the most recent exchanges.
// Must be called with lock held.
func (s *Session) trim() {
	if s.historyLimit == 0 {
		return
	}
	keep := 2 * s.historyLimit
	if len(s.history)-1 <= keep {
		return
	}
	trimmed := make([]llms.MessageContent, 0, keep+1)
	trimmed = append(trimmed, s.history[0])
	trimmed = append(trimmed, s.history[len(s.history)-keep:]...)
	s.history = trimmed
}

func (s *Session) pause(ctx context.Context) {
	if s.requestDelay <= 0 {
		return
	}
	timer := time.NewTimer(s.requestDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// historyLen reports the number of messages held, including the system prompt.
func (s *Session) historyLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

func textMessage(role llms.ChatMessageType, text string) llms.MessageContent {
	return llms.MessageContent{
		Role:  role,
		Parts: []llms.ContentPart{llms.TextPart(text)},
	}
}
