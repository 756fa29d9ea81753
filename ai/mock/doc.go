// Package mock provides test double implementations of AI service interfaces.
//
// The embedder derives a unit vector from an FNV hash of the text, so the same
// text always embeds to the same vector and distinct texts are nearly
// orthogonal. It doubles as the offline provider selected by
// Provider = "mock".
//
// # Usage in Tests
//
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	count := mockEmbedder.CallCount()
package mock
