package models

// SourceDocument represents a chunk of text and its origin.
type SourceDocument struct {
	Text     string                 `json:"text"`
	Score    float32                `json:"score,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// DocumentInfo describes the document currently indexed for a session.
type DocumentInfo struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
	Chunks   int    `json:"chunks"`
}
