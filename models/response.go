package models

type SessionResponse struct {
	SessionID string   `json:"sessionID"`
	Warnings  []string `json:"warnings,omitempty"`
}

type UploadResponse struct {
	Message  string       `json:"message"`
	Document DocumentInfo `json:"document"`
}

type AskResponse struct {
	Turn       Turn             `json:"turn"`
	SourceDocs []SourceDocument `json:"source_docs,omitempty"`
	SessionID  string           `json:"sessionID"`
}

type SearchResponse struct {
	Turn      Turn   `json:"turn"`
	SessionID string `json:"sessionID"`
}

type HistoryResponse struct {
	Mode      Mode   `json:"mode"`
	Count     int    `json:"count"`
	Turns     []Turn `json:"turns"`
	SessionID string `json:"sessionID"`
}
