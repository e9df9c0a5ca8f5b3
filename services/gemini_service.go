package services

import (
	"context"
	"fmt"
	"strings"

	"github/itish2003/docsearch/models"

	"google.golang.org/genai"
)

// Embedder maps a piece of text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// AnswerRequest is everything the language model sees for one document question.
type AnswerRequest struct {
	Question string
	Context  []models.SourceDocument
	History  []models.Turn
}

// Answerer produces a single text answer for a document question.
type Answerer interface {
	Answer(ctx context.Context, req AnswerRequest) (string, error)
}

// NewGeminiClient opens a Gemini API client for the given key.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model}
}

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := g.client.Models.EmbedContent(ctx, g.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res == nil || len(res.Embeddings) == 0 || res.Embeddings[0] == nil || len(res.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embeddings[0].Values, nil
}

type GeminiAnswerer struct {
	client *genai.Client
	model  string
}

func NewGeminiAnswerer(client *genai.Client, model string) *GeminiAnswerer {
	return &GeminiAnswerer{client: client, model: model}
}

// Answer opens a chat seeded with the remembered turns and sends the
// context-bearing prompt as the newest user message.
func (g *GeminiAnswerer) Answer(ctx context.Context, req AnswerRequest) (string, error) {
	history := make([]*genai.Content, 0, 2*len(req.History))
	for _, turn := range req.History {
		history = append(history,
			genai.NewContentFromText(turn.Question, genai.RoleUser),
			genai.NewContentFromText(turn.Response, genai.RoleModel),
		)
	}

	chat, err := g.client.Chats.Create(ctx, g.model, &genai.GenerateContentConfig{
		SystemInstruction: GetSystemPrompt(),
	}, history)
	if err != nil {
		return "", fmt.Errorf("could not start chat session: %w", err)
	}

	result, err := chat.SendMessage(ctx, genai.Part{Text: BuildDocumentPrompt(req.Question, req.Context)})
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "I'm sorry, I couldn't generate a response.", nil
	}

	var responseText strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			responseText.WriteString(p.Text)
		}
	}
	return responseText.String(), nil
}
