// Package mock provides test doubles for ai.Embedder, ai.CompletionProvider
// and ai.Provider. The mocks let tests run without external AI services and
// give controlled, deterministic behavior.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	completer := mock.NewMockCompleter(ai.FamilyClaude, "Our ARR is $2.4M.")
//	count := completer.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: unit vectors derived from an FNV hash of the text
//   - MockCompleter: a fixed reply with usage estimated at 4 chars per token
//   - MockProvider: aggregates a mock embedder and completer
package mock
