package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	config *ClientConfig
	client *openai.Client
}

// NewOpenAIClient creates a client for the OpenAI API.
func NewOpenAIClient(config *ClientConfig) *OpenAIClient {
	if config.EmbedModel == "" {
		config.EmbedModel = string(openai.SmallEmbedding3)
	}
	if config.AnswerModel == "" {
		config.AnswerModel = openai.GPT4oMini
	}
	if config.Dim == 0 {
		switch config.EmbedModel {
		case string(openai.LargeEmbedding3):
			config.Dim = 3072
		default:
			// text-embedding-3-small and ada-002 dimensions
			config.Dim = 1536
		}
	}

	return &OpenAIClient{
		config: config,
		client: openai.NewClient(config.APIKey),
	}
}

// Embed implements the embedding functionality
func (c *OpenAIClient) Embed(text string) ([]float32, error) {
	if c.config.APIKey == "" {
		return nil, errors.New("PROVIDER_API_KEY unset")
	}

	resp, err := c.client.CreateEmbeddings(context.Background(), openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.config.EmbedModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

// Synthesize implements answer synthesis over the retrieved evidence.
func (c *OpenAIClient) Synthesize(ctx context.Context, question string, evidence []EvidencePiece) (string, error) {
	if c.config.APIKey == "" {
		return "", errors.New("PROVIDER_API_KEY unset")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.AnswerModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: synthesisPrompt(question, evidence)},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) Dim() int {
	return c.config.Dim
}
