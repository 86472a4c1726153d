package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/genai"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

// Completer sends a single prompt to a hosted model and returns its raw
// text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var errEmptyCompletion = errors.New("model returned an empty response")

// LLMService talks to Gemini through langchaingo.
type LLMService struct {
	Client llms.Model
}

func NewLLMService(ctx context.Context, apiKey, model string) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is empty")
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &LLMService{Client: llm}, nil
}

func (s *LLMService) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt,
		llms.WithJSONMode(),
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp) == "" {
		return "", errEmptyCompletion
	}
	return resp, nil
}

// GenAIService talks to Gemini through the google.golang.org/genai SDK and
// constrains the answer with a response schema.
type GenAIService struct {
	client *genai.Client
	model  string
}

func NewGenAIService(ctx context.Context, apiKey, model string, httpOptions *genai.HTTPOptions) (*GenAIService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is empty")
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if httpOptions != nil {
		cfg.HTTPOptions = *httpOptions
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIService{client: client, model: model}, nil
}

func (s *GenAIService) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   candidateSchema(),
	})
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}

func candidateSchema() *genai.Schema {
	props := map[string]*genai.Schema{
		"action": {
			Type: genai.TypeString,
			Enum: []string{string(models.ActionCreate), string(models.ActionUpdate)},
		},
	}
	required := []string{"action"}
	for _, f := range models.Fields {
		props[string(f)] = &genai.Schema{Type: genai.TypeString}
		required = append(required, string(f))
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   required,
	}
}
