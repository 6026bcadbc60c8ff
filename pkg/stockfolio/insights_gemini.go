package stockfolio

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

func geminiInsightCompletion(ctx context.Context, baseURL, apiKey, model, systemPrompt, userPrompt string) (string, string, error) {
	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return "", "", fmt.Errorf("create gemini client failed: %w", err)
	}

	requestConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		Temperature:      genai.Ptr(float32(insightTemperature)),
		MaxOutputTokens:  insightMaxOutputTokens,
		ResponseMIMEType: "application/json",
	}
	response, err := client.Models.GenerateContent(ctx, model, genai.Text(userPrompt), requestConfig)
	if err != nil {
		return "", "", fmt.Errorf("gemini generate content failed: %w", err)
	}
	content := strings.TrimSpace(response.Text())
	if content == "" {
		return "", "", fmt.Errorf("gemini response content is empty")
	}
	modelUsed := strings.TrimSpace(response.ModelVersion)
	if modelUsed == "" {
		modelUsed = model
	}
	return modelUsed, content, nil
}
