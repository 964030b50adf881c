// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Session,
// ai.SessionFactory and ai.EmbedderFactory for use in unit tests. The mocks
// allow tests to run without external AI service dependencies and enable
// controlled, deterministic behavior. All mocks are safe for concurrent use.
//
// # Usage in Tests
//
//	// Scripted replies, consumed in order
//	session := mock.NewMockSession("In the dream a snake appeared", "Query 1: 1")
//
//	// Custom behavior injection
//	session.SendFunc = func(ctx context.Context, prompt string) (string, error) {
//	    return "", errors.New("service unavailable")
//	}
//
//	// Check calls
//	count := session.CallCount()
//	prompts := session.Prompts()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockSession: Returns scripted replies, then empty strings
//   - MockProvider: Creates a fresh MockSession per request and one
//     MockEmbedder per model
package mock
