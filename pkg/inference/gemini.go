package inference

import (
	"cmp"
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

type GeminiInferencer struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewGeminiInferencer creates a new inferencer backed by the Gemini API.
func NewGeminiInferencer(apiKey string, model string) (*GeminiInferencer, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &GeminiInferencer{
		client: client,
		apiKey: apiKey,
		model:  model,
	}, nil
}

func (o *GeminiInferencer) ChangeConfig(config *genai.ClientConfig) {
	client, err := genai.NewClient(context.Background(), config)
	if err != nil {
		return
	}
	o.client = client
}

func (o *GeminiInferencer) Name() string { return "gemini" }

// Invoke sends the composed prompt to the Gemini generate-content endpoint.
// The reply is free text; stage prompts ask for tagged spans or canonical
// JSON, so no response MIME type is forced here.
func (o *GeminiInferencer) Invoke(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	if params == nil {
		params = new(openai.ChatCompletionNewParams)
	}
	temperature := float32(cmp.Or(params.Temperature.Value, DefaultTemperature))
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleModel),
		Temperature:       &temperature,
		MaxOutputTokens:   int32(cmp.Or(params.MaxCompletionTokens.Value, DefaultMaxOutputTokens)),
	}

	result, err := o.client.Models.GenerateContent(
		ctx,
		cmp.Or(params.Model, o.model),
		genai.Text(user),
		config,
	)
	if err != nil {
		return "", &InvocationError{Provider: "gemini", Err: err}
	}

	text := result.Text()
	if text == "" {
		return "", &InvocationError{Provider: "gemini", Err: errors.New("empty completion content")}
	}
	return text, nil
}
