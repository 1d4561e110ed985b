package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "WorldWeaver Planner API",
		"status":  "ok",
	})
}

func (s *Server) handleGetHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "worldweaver",
	})
}

func (s *Server) handleGetProgress(c echo.Context) error {
	sess := currentSession(c)
	stage, _ := s.progress.Load(sess.user.Email)
	return c.JSON(http.StatusOK, map[string]int{"stage": stage})
}
