package stockfolio

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func openaiInsightCompletion(ctx context.Context, baseURL, apiKey, model, systemPrompt, userPrompt string) (string, string, error) {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(insightTemperature),
	})
	if err != nil {
		return "", "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", "", fmt.Errorf("openai response has no choices")
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", "", fmt.Errorf("openai response content is empty")
	}
	return completion.Model, content, nil
}
