package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"worldweaver/pkg/schema"
)

type pruneReq struct {
	ChatHistory string `json:"chat_history"`
}

// POST /api/prune
// A failed condensation degrades to a canned context payload so the client
// can keep the conversation going with its full history intact.
func (s *Server) handlePostPrune(c echo.Context) error {
	var req pruneReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	sess := currentSession(c)

	pruned, err := s.Planner.Prune(c.Request().Context(), req.ChatHistory)
	if err != nil {
		log.Error("prune failed", "error", err)
		sess.conversation.LogError("PRUNE_ERROR", err.Error(), nil)
		return c.JSON(http.StatusOK, schema.PrunedContext{
			Type: "context",
			Text: "A pruned context could not be generated; continue with the existing history.",
		})
	}

	sess.conversation.LogMessage("chat history pruned")
	return c.JSON(http.StatusOK, pruned)
}
