package models

type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

type SearchRequest struct {
	Query string `json:"query" binding:"required"`
}
