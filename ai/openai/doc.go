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


// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// Sessions and embedders talk to OpenAI or any OpenAI-compatible service
// (Gemini's compatibility endpoint, Ollama, LocalAI, vLLM) through the
// langchaingo library.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithChatModel("gemini-2.0-flash"),
//	    ai.WithEmbeddingHost("http://localhost:11434"), // /v1 added automatically
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	session, err := provider.NewSession(ctx, systemPrompt, apiKey)
//	reply, err := session.Send(ctx, "I saw a snake")
//
//	embedder, err := provider.NewEmbedder("embeddinggemma")
//	vector, err := embedder.EmbedText(ctx, "seeing a snake")
package openai
