// Package server exposes the planner over HTTP. Taxonomy errors never
// surface as HTTP failures on the chat routes; they become 200-status
// message payloads the frontend can render, and the conversation recorder
// keeps the operator-facing trail.
package server

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"worldweaver/pkg/planner"
	"worldweaver/pkg/recorder"
	"worldweaver/pkg/store"
	"worldweaver/pkg/utils"
)

type Server struct {
	Echo     *echo.Echo
	Planner  *planner.Planner
	Recorder *recorder.Recorder
	Users    *store.Store
	Ctx      context.Context

	// ProgressFile is where per-user progress is persisted at shutdown.
	ProgressFile string

	sessions *utils.SyncMap[map[string]*session, string, *session]
	progress *utils.SyncMap[map[string]int, string, int]
}

// session ties one logged-in browser to its conversation log. One open
// writer per conversation; the session map owns that contract.
type session struct {
	user         store.User
	conversation *recorder.Session
}

func NewServer(ctx context.Context, p *planner.Planner, rec *recorder.Recorder, users *store.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:     e,
		Planner:  p,
		Recorder: rec,
		Users:    users,
		Ctx:      ctx,
		sessions: utils.NewSyncMap[map[string]*session](),
		progress: utils.NewSyncMap[map[string]int](),
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	s.Echo.GET("/health", s.handleGetHealth)

	s.Echo.POST("/login", s.handlePostLogin)
	s.Echo.POST("/logout", s.handlePostLogout, s.requireSession)

	api := s.Echo.Group("/api", s.requireSession)
	api.POST("/llm", s.handlePostLLM)           // chat turn -> message/tool/both payload
	api.POST("/tutorial", s.handlePostTutorial) // stage introduction -> message payload
	api.POST("/prune", s.handlePostPrune)       // context condensation -> context payload
	api.GET("/progress", s.handleGetProgress)
}

// LoadProgress restores the per-user progress map saved by a previous run.
func (s *Server) LoadProgress() {
	saved, err := utils.Load[map[string]int](s.ProgressFile)
	if err != nil || saved == nil {
		return
	}
	for user, stage := range saved {
		s.progress.Store(user, stage)
	}
	log.Info("restored progress", "users", len(saved))
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr)
	return s.Echo.Start(addr)
}

// Shutdown closes every open conversation, persists progress, and stops
// the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")

	s.sessions.Range(func(_ string, sess *session) bool {
		sess.conversation.End()
		return true
	})

	if s.ProgressFile != "" {
		saved := make(map[string]int)
		s.progress.Range(func(user string, stage int) bool {
			saved[user] = stage
			return true
		})
		if err := utils.Save(s.ProgressFile, saved); err != nil {
			log.Warn("failed saving progress", "error", err)
		}
	}

	return s.Echo.Shutdown(ctx)
}
