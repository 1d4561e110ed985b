package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"worldweaver/pkg/normalize"
	"worldweaver/pkg/stage"
)

type tutorialReq struct {
	Stage       flexInt `json:"stage"`
	ChatContext string  `json:"chat_context"`
	DocContext  string  `json:"doc_context"`
}

// POST /api/tutorial
// Tutorial replies are always message payloads; the model's raw text is
// wrapped verbatim, never normalized.
func (s *Server) handlePostTutorial(c echo.Context) error {
	var req tutorialReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	sess := currentSession(c)
	conv := sess.conversation
	stageIndex := int(req.Stage)

	conv.LogTutorialRequest(stageIndex, req.ChatContext, req.DocContext)

	raw, meta, err := s.Planner.Tutorial(c.Request().Context(), stageIndex, req.ChatContext, req.DocContext)
	if err != nil {
		var unknown *stage.UnknownStageError
		var payload map[string]any
		if errors.As(err, &unknown) {
			payload = normalize.Message(fmt.Sprintf("Invalid stage: %d", unknown.Stage))
			conv.LogError("TUTORIAL_STAGE_ERROR", err.Error(), map[string]any{
				"stage":            unknown.Stage,
				"available_stages": stage.Count(),
			})
		} else {
			payload = normalize.Message("Sorry, I encountered an error with your introduction: " + err.Error())
			conv.LogError("TUTORIAL_ERROR", err.Error(), map[string]any{"stage": stageIndex})
		}
		conv.LogTutorialResponse("ERROR_OCCURRED", payload, map[string]any{"stage": stageIndex})
		return c.JSON(http.StatusOK, payload)
	}

	payload := normalize.Message(raw)
	conv.LogTutorialResponse(raw, payload, meta.Map())
	return c.JSON(http.StatusOK, payload)
}
