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


// Package ai provides abstractions for the external AI services used by Oneiro.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - Session: A conversational completion context bound to one credential
//   - SessionFactory: Creates sessions primed with a system prompt
//   - EmbedderFactory: Creates an embedder per embedding model
//
// The interpretation pipeline treats every Session reply as untrusted free
// text. Nothing in this package validates what a model says.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//     (Gemini, Ollama, vLLM and friends) through langchaingo
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types. Mock constructors
// return concrete types so tests can inject behavior and inspect call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithChatModel("gemini-2.0-flash"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	session, err := provider.NewSession(ctx, "You interpret dreams.", os.Getenv("GOOGLE_API_KEY_1"))
//	reply, err := session.Send(ctx, "I saw a snake")
package ai
