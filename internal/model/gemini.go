package model

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiService implements Service with the Gemini API.
type GeminiService struct {
	client *genai.Client
}

func NewGeminiService(ctx context.Context, apiKey string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{client: client}, nil
}

func (s *GeminiService) ListModels(ctx context.Context) ([]Info, error) {
	var infos []Info
	for m, err := range s.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to list models: %w", err)
		}
		infos = append(infos, Info{Name: NormalizeName(m.Name), Actions: m.SupportedActions})
	}
	return infos, nil
}

func (s *GeminiService) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generate with %s: %w", model, err)
	}
	return resp.Text(), nil
}
