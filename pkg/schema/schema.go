package schema

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
)

func generateSchema[T any]() any {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return r.Reflect(v)
}

// PrunedContext is the structured-outputs shape for the context pruner.
type PrunedContext struct {
	Type string `json:"type" jsonschema:"enum=context" jsonschema_description:"Always the literal string 'context'"`
	Text string `json:"text" jsonschema_description:"The condensed conversation history, preserving decisions and facts the user established"`
}

var PrunedContextSchema = generateSchema[PrunedContext]()

// PruneResponseFormat forces prune replies into the PrunedContext shape.
func PruneResponseFormat() openai.ChatCompletionNewParamsResponseFormatUnion {
	p := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "pruned_context",
		Description: openai.String("A condensed chat history acknowledgement"),
		Schema:      PrunedContextSchema,
		Strict:      openai.Bool(true),
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: p},
	}
}
