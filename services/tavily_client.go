package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github/itish2003/docsearch/models"
)

// SearchClient runs a web search and returns at most maxResults items.
type SearchClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error)
}

// TavilyClient talks to the Tavily REST API.
type TavilyClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewTavilyClient(httpClient *http.Client, baseURL, apiKey string) *TavilyClient {
	return &TavilyClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

func (t *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	reqBody, err := json.Marshal(models.TavilySearchRequest{
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tavily request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create tavily http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call tavily search api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		var apiErr models.TavilyErrorResponse
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Detail.Error != "" {
			return nil, fmt.Errorf("tavily api returned %d: %s", resp.StatusCode, apiErr.Detail.Error)
		}
		return nil, fmt.Errorf("tavily api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var tavilyResp models.TavilySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&tavilyResp); err != nil {
		return nil, fmt.Errorf("failed to decode tavily response: %w", err)
	}
	if maxResults > 0 && len(tavilyResp.Results) > maxResults {
		tavilyResp.Results = tavilyResp.Results[:maxResults]
	}
	return tavilyResp.Results, nil
}
