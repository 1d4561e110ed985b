package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"
)

const sessionCookie = "worldweaver_session"

const sessionContextKey = "worldweaver.session"

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// handlePostLogin authenticates a user and starts a fresh conversation log.
// Logging in again replaces any previous conversation for that browser.
func (s *Server) handlePostLogin(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid login payload")
	}

	user, err := s.Users.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	// End the conversation from a previous login on this browser.
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		if old, ok := s.sessions.Load(cookie.Value); ok {
			old.conversation.End()
			s.sessions.Delete(cookie.Value)
		}
	}

	username, _, _ := strings.Cut(user.Email, "@")
	sess := &session{
		user:         user,
		conversation: s.Recorder.Begin(username),
	}
	token := ksuid.New().String()
	s.sessions.Store(token, sess)

	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})

	log.Info("user logged in", "email", user.Email)
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"name":   user.Name,
	})
}

func (s *Server) handlePostLogout(c echo.Context) error {
	cookie, err := c.Cookie(sessionCookie)
	if err == nil {
		if sess, ok := s.sessions.Load(cookie.Value); ok {
			sess.conversation.End()
			s.sessions.Delete(cookie.Value)
		}
		c.SetCookie(&http.Cookie{
			Name:     sessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// requireSession gates the API routes behind a valid session cookie.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(sessionCookie)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "login required")
		}
		sess, ok := s.sessions.Load(cookie.Value)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "login required")
		}
		c.Set(sessionContextKey, sess)
		return next(c)
	}
}

func currentSession(c echo.Context) *session {
	sess, _ := c.Get(sessionContextKey).(*session)
	return sess
}
