package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	// DefaultModelName is the generation model used when none is configured.
	DefaultModelName = "gemini-2.0-flash"
	// DefaultEmbeddingModel is the embedding model used when none is configured.
	DefaultEmbeddingModel = "text-embedding-004"
)

// GenAIClient is the Gemini-backed implementation of Generator and of
// vectorindex.Embedder. One client serves both concerns so the process
// holds a single connection to the model service.
type GenAIClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

// NewGenAIClient creates a Gemini client. API credentials come from the
// environment (GOOGLE_API_KEY / GEMINI_API_KEY), the way the genai SDK
// resolves them.
func NewGenAIClient(ctx context.Context, model, embeddingModel string) (*GenAIClient, error) {
	if model == "" {
		model = DefaultModelName
	}
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGenAIClient: create genai client: %w", err)
	}

	return &GenAIClient{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
	}, nil
}

func promptContents(prompt string) []*genai.Content {
	return []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
}

// Complete generates the whole answer synchronously.
func (c *GenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, promptContents(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Complete: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Complete: empty response from model")
	}
	return text, nil
}

// Stream generates the answer as a sequence of fragments, forwarding each
// to emit before pulling the next. A cancelled context or an emit error
// stops the pull.
func (c *GenAIClient) Stream(ctx context.Context, prompt string, emit func(chunk string) error) error {
	for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, promptContents(prompt), nil) {
		if err != nil {
			return fmt.Errorf("Stream: generate content: %w", err)
		}
		chunk := resp.Text()
		if chunk == "" {
			continue
		}
		if err := emit(chunk); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Embed returns one vector per input text, in order. It implements
// vectorindex.Embedder.
func (c *GenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Embed: embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("Embed: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}
