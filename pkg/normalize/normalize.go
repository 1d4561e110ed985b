// Package normalize turns a model's raw text reply into one of the
// canonical response shapes the planner frontend understands: a message, a
// tool call, both, or a document-only edit. It never fails; any input,
// including the empty string and malformed pseudo-JSON, yields a renderable
// payload.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"worldweaver/pkg/utils"
)

// Outcome classifies how a reply was normalized, for diagnostics.
type Outcome string

const (
	// OutcomeJSONDirect means the reply was already a canonical object.
	OutcomeJSONDirect Outcome = "json_direct"
	// OutcomeJSONWrapped means the reply was JSON without a recognized
	// type discriminator and was wrapped as a message.
	OutcomeJSONWrapped Outcome = "json_wrapped"
	// OutcomeStringParsed means the reply was plain text, scanned for
	// <message>/<document> spans.
	OutcomeStringParsed Outcome = "string_parsed"
	// OutcomeFallback means canonicalization itself failed and the raw
	// text was wrapped verbatim.
	OutcomeFallback Outcome = "fallback"
	// OutcomeError marks responses synthesized after an upstream failure.
	// Normalize never produces it; callers use it when logging errors.
	OutcomeError Outcome = "error"
)

// Response types understood by the frontend.
const (
	TypeMessage  = "message"
	TypeTool     = "tool"
	TypeBoth     = "both"
	TypeDocument = "document"
	TypeContext  = "context"
)

// Result carries the canonical payload and its classification.
type Result struct {
	Outcome Outcome
	Payload map[string]any
}

var (
	messageRX  = regexp.MustCompile(`(?s)<message>(.*?)</message>`)
	documentRX = regexp.MustCompile(`(?s)<document>(.*?)</document>`)
)

var recognized = map[string]bool{
	TypeMessage: true,
	TypeTool:    true,
	TypeBoth:    true,
	TypeContext: true,
}

// Message wraps plain text in the canonical message shape.
func Message(text string) map[string]any {
	return map[string]any{"type": TypeMessage, "text": text}
}

// Normalize classifies a raw model reply.
//
// The chain is ordered: valid canonical JSON wins, valid but unrecognized
// JSON is wrapped as a message, everything else goes through the inline
// markup scan. The markup scan always produces a result, so the final
// fallback only guards against payloads that cannot be re-serialized.
func Normalize(raw string) Result {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		if obj, ok := parsed.(map[string]any); ok {
			if t, ok := obj["type"].(string); ok && recognized[t] {
				return Result{Outcome: OutcomeJSONDirect, Payload: obj}
			}
		}
		return Result{Outcome: OutcomeJSONWrapped, Payload: Message(raw)}
	}

	payload := parseMarkup(raw)
	if _, err := json.Marshal(payload); err != nil {
		return Result{Outcome: OutcomeFallback, Payload: Message(raw)}
	}
	return Result{Outcome: OutcomeStringParsed, Payload: payload}
}

// parseMarkup extracts <message> and <document> spans from free text. A
// document span is parsed as JSON when possible; otherwise the raw span is
// kept as a string payload, which the frontend treats as degraded rather
// than failed. Text with neither span becomes a message verbatim.
func parseMarkup(raw string) map[string]any {
	var messageContent string
	if m := messageRX.FindStringSubmatch(raw); m != nil {
		messageContent = strings.TrimSpace(m[1])
	}

	var documentContent any
	if m := documentRX.FindStringSubmatch(raw); m != nil {
		span := strings.TrimSpace(m[1])
		var parsed any
		if err := json.Unmarshal([]byte(utils.CleanJSON(span)), &parsed); err == nil {
			documentContent = parsed
		} else if span != "" {
			documentContent = span
		}
	}

	switch {
	case messageContent != "" && documentContent != nil:
		return map[string]any{
			"type":     TypeBoth,
			"text":     messageContent,
			"document": documentContent,
		}
	case messageContent != "":
		return map[string]any{
			"type": TypeMessage,
			"text": messageContent,
		}
	case documentContent != nil:
		return map[string]any{
			"type":     TypeDocument,
			"document": documentContent,
		}
	default:
		return Message(raw)
	}
}
