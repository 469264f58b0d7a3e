package models

// DocumentChunk is a piece of the source PDF's text as written to the vector store.
type DocumentChunk struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchMatch is a single similarity search hit.
type SearchMatch struct {
	Chunk DocumentChunk `json:"chunk"`
	Score float32       `json:"score"`
}
