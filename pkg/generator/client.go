package generator

import (
	"context"

	"google.golang.org/genai"

	"github.com/agentstation/curator/pkg/constants"
	"github.com/agentstation/curator/pkg/errors"
)

// Client sends a prompt to a model and returns its text reply.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiClient is a Client for the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini client. An empty model selects the
// default model.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &errors.ConfigError{
			Component: "gemini",
			Message:   "API key required - set CURATOR_GEMINI_API_KEY or gemini_api_key",
			Err:       errors.ErrAPIKeyRequired,
		}
	}
	if model == "" {
		model = constants.DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, errors.NewConfigError("gemini", "creating client", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Complete implements Client. The model is asked for a JSON reply.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.GenerateTimeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", errors.WrapAPI("gemini", apiErr.Code, err)
		}
		return "", errors.WrapAPI("gemini", 0, err)
	}
	return resp.Text(), nil
}
