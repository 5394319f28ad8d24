// Package ai asks an OpenAI compatible model to pick a category for a parsed
// banking message.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"nexus/internal/domain/bankmsg"
	"nexus/internal/domain/category"
)

// noCategory is the answer the model gives when nothing fits
const noCategory = "none"

const systemPrompt = `You categorize personal finance transactions parsed from bank SMS messages.
Pick exactly one category from the allowed list that best matches the transaction.
Answer "none" when no category clearly fits.`

type Suggester struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func New(apiKey, baseURL, model string, timeout time.Duration) *Suggester {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Suggester{
		client:  openai.NewClientWithConfig(config),
		model:   model,
		timeout: timeout,
	}
}

type suggestion struct {
	Category string `json:"category"`
}

// categorySchema restricts the answer to the known names plus "none"
func categorySchema(categories []*category.Category) (json.RawMessage, error) {
	names := make([]string, 0, len(categories)+1)
	for _, c := range categories {
		names = append(names, c.Name)
	}
	names = append(names, noCategory)

	return json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category": map[string]any{
				"type":        "string",
				"enum":        names,
				"description": "The chosen category name",
			},
		},
		"required":             []string{"category"},
		"additionalProperties": false,
	})
}

func userPrompt(in bankmsg.SuggestInput, categories []*category.Category) string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return fmt.Sprintf("Type: %s\nAmount: %s\nDescription: %s\nAllowed categories: %s",
		in.Type, in.Amount.StringFixed(2), in.Description, strings.Join(names, ", "))
}

// Suggest implements bankmsg.Suggester. An answer outside the known names is
// treated as no opinion.
func (s *Suggester) Suggest(ctx context.Context, in bankmsg.SuggestInput, categories []*category.Category) (*int64, error) {
	if len(categories) == 0 {
		return nil, nil
	}

	schema, err := categorySchema(categories)
	if err != nil {
		return nil, fmt.Errorf("failed to build category schema: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt(in, categories),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "category_suggestion",
				Schema: schema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	var out suggestion
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	id, ok := category.NameIndex(categories)[out.Category]
	if !ok {
		return nil, nil
	}
	return &id, nil
}
