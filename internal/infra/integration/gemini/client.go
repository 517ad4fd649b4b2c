// Package gemini implements the analysis-provider port on Google's
// Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/grovelane/miniaudit-api/internal/entity"
	"github.com/grovelane/miniaudit-api/internal/infra/http/middleware"
	"github.com/grovelane/miniaudit-api/internal/usecase"
)

const defaultModel = "gemini-2.0-flash"

type Client struct {
	client *genai.Client
	model  string
}

var _ usecase.AnalysisProvider = (*Client)(nil)

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

type recommendationsResponse struct {
	Recommendations []usecase.Recommendation `json:"recommendations"`
}

func (c *Client) RecommendServices(ctx context.Context, lead *entity.Lead, services []entity.Service) ([]usecase.Recommendation, error) {
	text, err := c.generate(ctx, recommendationPrompt(lead, services))
	if err != nil {
		middleware.RecordProviderError("recommendations")
		return nil, &usecase.ProviderError{Call: "recommendations", Err: err}
	}

	var out recommendationsResponse
	if err := parseOrExtract(text, &out); err != nil {
		middleware.RecordProviderError("recommendations")
		return nil, &usecase.ProviderError{Call: "recommendations", RawText: text, Err: err}
	}
	return out.Recommendations, nil
}

func (c *Client) AnalyzeContext(ctx context.Context, lead *entity.Lead) (*usecase.ContextAnalysis, error) {
	text, err := c.generate(ctx, contextPrompt(lead))
	if err != nil {
		middleware.RecordProviderError("context_analysis")
		return nil, &usecase.ProviderError{Call: "context_analysis", Err: err}
	}

	var out usecase.ContextAnalysis
	if err := parseOrExtract(text, &out); err != nil {
		middleware.RecordProviderError("context_analysis")
		// RawText lets the builder degrade to the unparsed narrative.
		return nil, &usecase.ProviderError{Call: "context_analysis", RawText: text, Err: err}
	}
	return &out, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0.4),
		},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty model response")
	}
	return text, nil
}

// parseOrExtract tries the raw text as JSON first, then falls back to
// scraping the first JSON object out of surrounding prose.
func parseOrExtract(text string, v any) error {
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}
	candidate, ok := ExtractJSONObject(text)
	if !ok {
		return fmt.Errorf("response contains no parseable JSON object")
	}
	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("decode extracted JSON: %w", err)
	}
	return nil
}
