package planner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldweaver/pkg/inference"
	"worldweaver/pkg/prompt"
	"worldweaver/pkg/stage"
)

type fakeInferencer struct {
	system string
	user   string
	params *openai.ChatCompletionNewParams
	reply  string
	err    error
}

func (f *fakeInferencer) Invoke(_ context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	f.params = params
	f.system = system
	f.user = user
	return f.reply, f.err
}

func (f *fakeInferencer) Name() string { return "fake" }

func promptFixtures(t *testing.T) *prompt.Store {
	t.Helper()
	base := t.TempDir()
	files := map[string]string{
		"general/situation_and_tone.toml": `v1 = "You are a friendly worldbuilding guide."`,
		"general/response_style.toml":     `v1 = "Reply with <message> tags.\nChat so far: {chat}\nDocument: {doc}"`,
		"stages/big_idea.toml":            `v1 = "Help the user find their big idea."`,
		"tutorial_list.toml":              `v2 = "Stage 0 through Stage 42"`,
		"tutorial_prompt.toml":            `v2 = "Introduce {stage_title}. All stages: {stages_list}. Chat: {chat} Doc: {doc}"`,
	}
	for name, content := range files {
		path := filepath.Join(base, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return prompt.NewStore(base)
}

func TestRespondComposesAndInvokes(t *testing.T) {
	inf := &fakeInferencer{reply: "<message>great idea</message>"}
	p := New(promptFixtures(t), inf)

	raw, meta, err := p.Respond(context.Background(), 1, "I want dragons", "earlier chat", `{"ops":[]}`)
	require.NoError(t, err)
	assert.Equal(t, "<message>great idea</message>", raw)

	assert.Equal(t, "fake", meta.Model)
	assert.Equal(t, "big_idea:latest", meta.PromptName)
	assert.Equal(t, 1, meta.Stage)

	assert.Equal(t, "I want dragons", inf.user)
	assert.Contains(t, inf.system, "You are a friendly worldbuilding guide.")
	assert.Contains(t, inf.system, "Help the user find their big idea.")
	assert.Contains(t, inf.system, "Chat so far: earlier chat")
	assert.Contains(t, inf.system, `Document: {"ops":[]}`)
	assert.NotContains(t, inf.system, "{chat}")
	assert.NotContains(t, inf.system, "{doc}")

	require.NotNil(t, inf.params)
	assert.Equal(t, float64(inference.DefaultTemperature), inf.params.Temperature.Value)
	assert.Equal(t, int64(inference.DefaultMaxOutputTokens), inf.params.MaxCompletionTokens.Value)
}

func TestRespondUnknownStage(t *testing.T) {
	p := New(promptFixtures(t), &fakeInferencer{})
	_, _, err := p.Respond(context.Background(), 999, "hi", "", "")
	var unknown *stage.UnknownStageError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, 999, unknown.Stage)
}

func TestRespondMissingPrompt(t *testing.T) {
	// Stage 2 resolves but has no stored stage prompt in the fixtures.
	p := New(promptFixtures(t), &fakeInferencer{})
	_, _, err := p.Respond(context.Background(), 2, "hi", "", "")
	assert.ErrorIs(t, err, prompt.ErrNotFound)
}

func TestRespondPropagatesInvocationError(t *testing.T) {
	inf := &fakeInferencer{err: &inference.InvocationError{Provider: "fake", Err: errors.New("boom")}}
	p := New(promptFixtures(t), inf)
	_, _, err := p.Respond(context.Background(), 1, "hi", "", "")
	var invErr *inference.InvocationError
	require.True(t, errors.As(err, &invErr))
}

func TestTutorial(t *testing.T) {
	inf := &fakeInferencer{reply: "Welcome!"}
	p := New(promptFixtures(t), inf)

	raw, meta, err := p.Tutorial(context.Background(), 1, "chat ctx", "doc ctx")
	require.NoError(t, err)
	assert.Equal(t, "Welcome!", raw)
	assert.Equal(t, "tutorial_stage_1", meta.PromptName)
	assert.Equal(t, "Stage 1: Your Big Idea", meta.StageTitle)

	assert.Empty(t, inf.user)
	assert.Contains(t, inf.system, "Introduce Stage 1: Your Big Idea.")
	assert.Contains(t, inf.system, "Stage 0 through Stage 42")
	assert.Contains(t, inf.system, "Chat: chat ctx")
	assert.Contains(t, inf.system, "Doc: doc ctx")
}

func TestTutorialUnknownStage(t *testing.T) {
	p := New(promptFixtures(t), &fakeInferencer{})
	_, _, err := p.Tutorial(context.Background(), 999, "", "")
	var unknown *stage.UnknownStageError
	require.True(t, errors.As(err, &unknown))
}

func TestPrune(t *testing.T) {
	inf := &fakeInferencer{reply: `{"type":"context","text":"the condensed history"}`}
	p := New(promptFixtures(t), inf)

	pruned, err := p.Prune(context.Background(), "a very long chat history")
	require.NoError(t, err)
	assert.Equal(t, "context", pruned.Type)
	assert.Equal(t, "the condensed history", pruned.Text)

	require.NotNil(t, inf.params)
	assert.NotNil(t, inf.params.ResponseFormat.OfJSONSchema)
	assert.Equal(t, "a very long chat history", inf.user)
}

func TestPruneBadJSON(t *testing.T) {
	inf := &fakeInferencer{reply: "not json"}
	p := New(promptFixtures(t), inf)
	_, err := p.Prune(context.Background(), "history")
	assert.Error(t, err)
}
