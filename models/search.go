package models

// SearchResult is a single hit returned by the web search service.
type SearchResult struct {
	Title   string  `json:"title,omitempty"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// TavilySearchRequest is the body posted to the Tavily /search endpoint.
type TavilySearchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth,omitempty"`
}

// TavilySearchResponse is the subset of the Tavily response we read.
type TavilySearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// TavilyErrorResponse is returned on non-200 answers.
type TavilyErrorResponse struct {
	Detail struct {
		Error string `json:"error"`
	} `json:"detail"`
}
