package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"philoschat/internal/config"
	"philoschat/internal/models"
)

// Client calls an OpenAI-compatible chat completion endpoint (Groq in the
// default configuration). Endpoint, model, temperature, and output cap are
// fixed per process.
type Client struct {
	chatModel model.BaseChatModel
}

// NewClient builds the upstream chat model from configuration.
func NewClient(ctx context.Context, cfg config.CompletionConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("completion api key is required")
	}
	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("init completion model: %w", err)
	}
	return &Client{chatModel: chatModel}, nil
}

// Complete sends the ordered context upstream and returns the generated text.
func (c *Client) Complete(ctx context.Context, turns []Turn) (string, error) {
	if len(turns) == 0 {
		return "", errors.New("turns cannot be empty")
	}
	messages := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		var role schema.RoleType
		switch t.Role {
		case models.RoleSystem:
			role = schema.System
		case models.RoleAssistant:
			role = schema.Assistant
		default:
			role = schema.User
		}
		messages = append(messages, &schema.Message{Role: role, Content: t.Content})
	}

	resp, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp == nil || resp.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}
	return resp.Content, nil
}
