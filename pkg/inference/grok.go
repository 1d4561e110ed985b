package inference

// Grok speaks the OpenAI chat completion protocol, so the provider is the
// OpenAI inferencer pointed at the x.ai endpoint.
func NewGrokInferencer(apiKey string, model string) *OpenAIInferencer {
	if model == "" {
		model = "grok-4-fast-reasoning"
	}
	o := NewOpenAIInferencer(apiKey, model)
	o.name = "grok"
	o.ChangeBaseURL("https://api.x.ai/v1")
	return o
}
