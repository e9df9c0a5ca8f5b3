package models

import "time"

// Mode selects which flow a turn belongs to.
type Mode string

const (
	ModePDF    Mode = "pdf"
	ModeSearch Mode = "search"
)

// ParseMode maps the user-facing names onto a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "pdf", "document", "Chat with PDF":
		return ModePDF, true
	case "search", "web", "Search the Web":
		return ModeSearch, true
	default:
		return "", false
	}
}

// Turn is one question/response pair. Results is only set for web-search turns
// that reached the search service and got something back.
type Turn struct {
	Question  string         `json:"question"`
	Response  string         `json:"response"`
	Results   []SearchResult `json:"results,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
