package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"worldweaver/pkg/document"
	"worldweaver/pkg/inference"
	"worldweaver/pkg/normalize"
	"worldweaver/pkg/prompt"
	"worldweaver/pkg/recorder"
	"worldweaver/pkg/stage"
)

// flexInt accepts both a JSON number and a numeric string; browser clients
// send the stage either way.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid stage value %q", s)
	}
	*f = flexInt(n)
	return nil
}

type llmReq struct {
	Text        string  `json:"text"`
	Document    string  `json:"document"`
	ChatHistory string  `json:"chat_history"`
	Stage       flexInt `json:"stage"`
}

// POST /api/llm
func (s *Server) handlePostLLM(c echo.Context) error {
	var req llmReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	sess := currentSession(c)
	conv := sess.conversation
	stageIndex := int(req.Stage)

	conv.LogLLMRequest(stageIndex, req.Text, req.ChatHistory, req.Document)
	s.trackProgress(sess.user.Email, stageIndex)

	conv.LogMessage("attempting llm call...")
	raw, meta, err := s.Planner.Respond(c.Request().Context(), stageIndex, req.Text, req.ChatHistory, req.Document)
	if err != nil {
		return s.respondError(c, conv, stageIndex, err)
	}

	res := normalize.Normalize(raw)
	metaMap := meta.Map()
	if summary := document.EditSummary(res.Payload, req.Document); summary != "" {
		metaMap["edit_summary"] = summary
	}
	conv.LogLLMResponse(raw, res.Payload, string(res.Outcome), metaMap)

	return c.JSON(http.StatusOK, res.Payload)
}

// trackProgress remembers the highest stage a user has reached. Stage state
// itself always comes from the request; this is bookkeeping only.
func (s *Server) trackProgress(email string, stageIndex int) {
	if stageIndex < 0 || stageIndex >= stage.Count() {
		return
	}
	if cur, ok := s.progress.Load(email); !ok || stageIndex > cur {
		s.progress.Store(email, stageIndex)
	}
}

// respondError maps the error taxonomy onto 200-status message payloads.
// The chat UI never sees a raw 5xx; the conversation log carries the detail.
func (s *Server) respondError(c echo.Context, conv *recorder.Session, stageIndex int, err error) error {
	var (
		unknown *stage.UnknownStageError
		invErr  *inference.InvocationError
		payload map[string]any
	)

	switch {
	case errors.As(err, &unknown):
		payload = normalize.Message(fmt.Sprintf("Invalid stage: %d", unknown.Stage))
		conv.LogError("PROCESSOR_STAGE_ERROR", err.Error(), map[string]any{
			"stage":            unknown.Stage,
			"available_stages": stage.Count(),
		})
	case errors.As(err, &invErr):
		payload = normalize.Message("Sorry, I encountered an error: " + invErr.Error())
		conv.LogError("LLM_ERROR", invErr.Error(), map[string]any{"stage": stageIndex})
	case errors.Is(err, prompt.ErrDirectoryNotFound),
		errors.Is(err, prompt.ErrNotFound),
		errors.Is(err, prompt.ErrVersionNotFound),
		errors.Is(err, prompt.ErrNoVersionedContent):
		payload = normalize.Message("Sorry, I encountered an error: " + err.Error())
		conv.LogError("PROMPT_RESOLUTION_ERROR", err.Error(), map[string]any{"stage": stageIndex})
		log.Error("prompt resolution failed", "stage", stageIndex, "error", err)
	default:
		payload = normalize.Message("Sorry, I encountered an error: " + err.Error())
		conv.LogError("LLM_ERROR", err.Error(), map[string]any{"stage": stageIndex})
	}

	conv.LogLLMResponse("ERROR_OCCURRED", payload, string(normalize.OutcomeError),
		map[string]any{"stage": stageIndex})
	return c.JSON(http.StatusOK, payload)
}
