package services

import (
	"context"
	"fmt"
	"strings"

	"github/itish2003/docsearch/config"
	"github/itish2003/docsearch/logger"
	"github/itish2003/docsearch/models"
)

const (
	GreetingReply  = "Hello! 👋 How can I assist you today with a web search?"
	NoResultsReply = "No results found."
	missingURL     = "#"
	missingSnippet = "No Content Available"
)

var greetings = map[string]struct{}{
	"hi":          {},
	"hello":       {},
	"hey":         {},
	"how are you": {},
	"what's up":   {},
}

// IsGreeting matches only whole phrases; "hi there" is a search.
func IsGreeting(s string) bool {
	_, ok := greetings[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// FormatResults renders every result as a link plus snippet block.
func FormatResults(results []models.SearchResult) string {
	var sb strings.Builder
	for _, r := range results {
		url := r.URL
		if url == "" {
			url = missingURL
		}
		content := r.Content
		if content == "" {
			content = missingSnippet
		}
		fmt.Fprintf(&sb, "**Result:**\n\n**Link:** [Read More](%s)\n\n**Snippet:** %s\n\n---\n", url, content)
	}
	return sb.String()
}

// WebSearchService is the web-search half of the chat.
type WebSearchService interface {
	Ready() error
	Search(ctx context.Context, session *Session, query string) (*models.Turn, error)
}

type webSearchServiceImpl struct {
	client     SearchClient
	ready      func() error
	maxResults int
	logger     logger.ILogger
}

func NewWebSearchService(client SearchClient, ready func() error, log logger.ILogger) WebSearchService {
	if ready == nil {
		ready = func() error { return nil }
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &webSearchServiceImpl{client: client, ready: ready, maxResults: config.SearchMaxResults, logger: log}
}

func (s *webSearchServiceImpl) Ready() error {
	return s.ready()
}

// Search appends exactly one turn per accepted query. Only a configuration
// problem or an empty query comes back as an error.
func (s *webSearchServiceImpl) Search(ctx context.Context, session *Session, query string) (*models.Turn, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyInput
	}

	session.work.Lock()
	defer session.work.Unlock()

	if IsGreeting(query) {
		turn := session.SearchLog.Append(models.Turn{Question: query, Response: GreetingReply})
		return &turn, nil
	}

	s.logger.Info("SEARCH", "Searching the web", map[string]interface{}{"session_id": session.ID, "query": query})
	results, err := s.client.Search(ctx, query, s.maxResults)
	if err != nil {
		s.logger.Error("SEARCH", "Search failed", map[string]interface{}{"session_id": session.ID, "error": err.Error()})
		turn := session.SearchLog.Append(models.Turn{
			Question: query,
			Response: "Error: " + err.Error(),
			IsError:  true,
		})
		return &turn, nil
	}

	if len(results) == 0 {
		turn := session.SearchLog.Append(models.Turn{Question: query, Response: NoResultsReply})
		return &turn, nil
	}

	turn := session.SearchLog.Append(models.Turn{
		Question: query,
		Response: FormatResults(results),
		Results:  results,
	})
	s.logger.Info("SEARCH", "Search finished", map[string]interface{}{"session_id": session.ID, "results": len(results)})
	return &turn, nil
}
