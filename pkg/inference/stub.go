package inference

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
)

// StubInferencer returns canned replies keyed by the user prompt so the
// whole pipeline, normalizer included, can run without a hosted model.
type StubInferencer struct{}

func NewStubInferencer() *StubInferencer { return &StubInferencer{} }

func (s *StubInferencer) Name() string { return "stub" }

var stubReplies = map[string]string{
	"insert": `{
  "type": "tool",
  "tool": "insert",
  "description": "Added Breaking Bad Quote",
  "index": 0,
  "text": "I am the one who knocks...",
  "style": "bold",
  "value": true,
  "source": "api"
}`,
	"set": `{
  "type": "tool",
  "tool": "set",
  "text": "It was the best of times, it was the worst of times, it was the age of wisdom, it was the age of foolishness.",
  "source": "api"
}`,
	"update": `{
  "type": "tool",
  "tool": "update",
  "index": 25,
  "length": 28,
  "text": " and the worst of times,",
  "source": "api"
}`,
	"delete": `{
  "type": "tool",
  "tool": "delete",
  "index": 0,
  "length": 29,
  "source": "api"
}`,
	"deleteall": `{
  "type": "tool",
  "tool": "deleteall",
  "source": "api"
}`,
	"format": `{
  "type": "tool",
  "tool": "format",
  "index": 0,
  "length": 29,
  "formats": {
    "bold": true
  },
  "source": "api"
}`,
	"llm_message": `{
  "type": "message",
  "text": "I am the one who knocks..."
}`,
	"document_new": `<message>I have added a quote from the Lord of the Rings to the document, let me know if you want to change it.</message><document>{"tool": "insert", "description": "Added LOTR Quote", "index": 0, "text": "All we have to decide is what to do with the time that is given to us."}</document>`,
	"message_new":  `<message>I burn my life to make a sunrise I know I'll never see.</message>`,
}

// Invoke ignores the system prompt and picks a canned reply from the first
// matching keyword in the user input.
func (s *StubInferencer) Invoke(_ context.Context, _ *openai.ChatCompletionNewParams, _, user string) (string, error) {
	key := strings.TrimSpace(strings.ToLower(user))
	if reply, ok := stubReplies[key]; ok {
		return reply, nil
	}
	return "<message>Stubbed reply. Ask for one of: insert, set, update, delete, deleteall, format, llm_message, document_new, message_new.</message>", nil
}
