// Package planner drives one chat turn: resolve the stage, load and
// compose the system prompt, fill in live context, and invoke the model.
package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"github.com/pkoukk/tiktoken-go"

	"worldweaver/pkg/inference"
	"worldweaver/pkg/prompt"
	"worldweaver/pkg/schema"
	"worldweaver/pkg/stage"
)

// Meta describes how a reply was produced, for the conversation log.
type Meta struct {
	Model      string
	PromptName string
	Stage      int
	StageTitle string
	Tokens     int
}

func (m Meta) Map() map[string]any {
	out := map[string]any{
		"model":       m.Model,
		"prompt_name": m.PromptName,
		"stage":       m.Stage,
	}
	if m.StageTitle != "" {
		out["stage_title"] = m.StageTitle
	}
	if m.Tokens > 0 {
		out["tokens"] = m.Tokens
	}
	return out
}

type Planner struct {
	Prompts    *prompt.Store
	Inferencer inference.Inferencer
}

func New(prompts *prompt.Store, inf inference.Inferencer) *Planner {
	return &Planner{Prompts: prompts, Inferencer: inf}
}

// Respond runs one chat turn for a worldbuilding stage and returns the raw
// model reply. Stage and prompt resolution failures propagate unwrapped so
// the caller can distinguish them from invocation failures.
func (p *Planner) Respond(ctx context.Context, stageIndex int, userText, chat, doc string) (string, Meta, error) {
	ref, err := stage.Resolve(stageIndex)
	if err != nil {
		return "", Meta{Stage: stageIndex}, err
	}

	meta := Meta{
		Model:      p.Inferencer.Name(),
		PromptName: ref.String(),
		Stage:      stageIndex,
	}

	system, err := p.Prompts.Combined(ref.Name, "latest", "latest")
	if err != nil {
		return "", meta, err
	}
	system = prompt.Fill(system, chat, doc)
	meta.Tokens = countTokens(system)

	log.Debug("invoking model", "model", meta.Model, "prompt", ref.String(), "stage", stageIndex, "tokens", meta.Tokens)

	raw, err := p.Inferencer.Invoke(ctx, defaultParams(), system, userText)
	if err != nil {
		return "", meta, err
	}
	log.Debug("model reply received", "stage", stageIndex, "bytes", len(raw))
	return raw, meta, nil
}

// Tutorial composes the stage introduction prompt from the tutorial
// scaffolding documents and invokes the model with no user input.
func (p *Planner) Tutorial(ctx context.Context, stageIndex int, chat, doc string) (string, Meta, error) {
	title := stage.Title(stageIndex)
	meta := Meta{
		Model:      p.Inferencer.Name(),
		PromptName: fmt.Sprintf("tutorial_stage_%d", stageIndex),
		Stage:      stageIndex,
		StageTitle: title,
	}
	if _, err := stage.Resolve(stageIndex); err != nil {
		return "", meta, err
	}

	list, err := p.Prompts.Load("tutorial_list", "2")
	if err != nil {
		return "", meta, err
	}
	tmpl, err := p.Prompts.Load("tutorial_prompt", "2")
	if err != nil {
		return "", meta, err
	}

	system := prompt.FillTutorial(tmpl, list, title)
	system = prompt.Fill(system, chat, doc)
	meta.Tokens = countTokens(system)

	log.Debug("invoking tutorial", "model", meta.Model, "stage", stageIndex, "title", title, "tokens", meta.Tokens)

	raw, err := p.Inferencer.Invoke(ctx, defaultParams(), system, "")
	if err != nil {
		return "", meta, err
	}
	return raw, meta, nil
}

const prunePrompt = `You condense chat histories for a collaborative worldbuilding assistant. Rewrite the conversation below into the shortest text that preserves every decision, name, and fact the user established. Drop greetings, retries, and abandoned directions.`

// Prune condenses a chat history through a structured-outputs call.
func (p *Planner) Prune(ctx context.Context, chatHistory string) (schema.PrunedContext, error) {
	params := defaultParams()
	params.ResponseFormat = schema.PruneResponseFormat()

	raw, err := p.Inferencer.Invoke(ctx, params, prunePrompt, chatHistory)
	if err != nil {
		return schema.PrunedContext{}, err
	}

	var pruned schema.PrunedContext
	if err := json.Unmarshal([]byte(raw), &pruned); err != nil {
		return schema.PrunedContext{}, fmt.Errorf("parsing pruned context: %w", err)
	}
	pruned.Type = "context"
	return pruned, nil
}

func defaultParams() *openai.ChatCompletionNewParams {
	return &openai.ChatCompletionNewParams{
		Temperature:         openai.Float(inference.DefaultTemperature),
		MaxCompletionTokens: openai.Int(inference.DefaultMaxOutputTokens),
	}
}

// countTokens returns the prompt's token count, or 0 when the tokenizer is
// unavailable. Diagnostic only.
func countTokens(text string) int {
	tkm, err := tiktoken.EncodingForModel("gpt-4-0613")
	if err != nil {
		return 0
	}
	return len(tkm.Encode(text, nil, nil))
}
