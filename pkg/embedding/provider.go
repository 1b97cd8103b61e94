package embedding

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponse struct {
	Embedding EmbeddingValues `json:"embedding"`
}

type EmbeddingValues struct {
	Values []float32 `json:"values"`
}
