// Package recorder writes per-session conversation logs: append-only,
// human-readable text files with banners and pretty-printed JSON blocks.
// It is a diagnostic channel, never a failure source; if the backing
// storage is unavailable every call is a no-op.
package recorder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"
)

const bannerWidth = 80

// Recorder creates conversation sessions under one log directory.
type Recorder struct {
	Dir string
}

func New(dir string) *Recorder {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn("conversation log directory unavailable, logging disabled", "dir", dir, "error", err)
	}
	return &Recorder{Dir: dir}
}

// Session is one conversation's log artifact. A nil Session is valid and
// silently discards everything, which keeps logging off the request path's
// failure modes. One writer per session; writes are serialized internally.
type Session struct {
	ID       string
	User     string
	Path     string
	Start    time.Time
	mu       sync.Mutex
	disabled bool
}

// Begin starts a new conversation log for a user. The returned session is
// usable even when the header write fails; it just stops writing.
func (r *Recorder) Begin(username string) *Session {
	now := time.Now()
	name := fmt.Sprintf("%s_%s_conversation.log", now.Format("20060102_150405"), sanitize(username))
	s := &Session{
		ID:    ksuid.New().String(),
		User:  username,
		Path:  filepath.Join(r.Dir, name),
		Start: now,
	}

	err := s.append(func(w io.Writer) {
		line := strings.Repeat("=", bannerWidth)
		fmt.Fprintf(w, "\n%s\n", line)
		fmt.Fprintln(w, center("WORLDWEAVER CONVERSATION LOG", " "))
		fmt.Fprintln(w, line)
		fmt.Fprintf(w, "User: %s\n", username)
		fmt.Fprintf(w, "Session: %s\n", s.ID)
		fmt.Fprintf(w, "Session Start: %s\n", now.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Log File: %s\n", name)
		fmt.Fprintf(w, "%s\n\n", line)
	})
	if err != nil {
		log.Warn("failed creating conversation log", "path", s.Path, "error", err)
		s.disabled = true
	}
	log.Info("conversation session started", "user", username, "session", s.ID)
	return s
}

// LogLLMRequest records an incoming chat request.
func (s *Session) LogLLMRequest(stage int, userMessage, chatHistory, docContext string) {
	s.block("LLM REQUEST", "-", func(w io.Writer) {
		fmt.Fprintln(w, "LLM REQUEST RECEIVED")
		fmt.Fprintf(w, "Stage: %d\n\n", stage)
		section(w, "USER MESSAGE", userMessage)
		if docContext != "" {
			section(w, "DOCUMENT CONTEXT", prettyIfJSON(docContext))
		}
		if chatHistory != "" {
			section(w, "CHAT HISTORY", prettyIfJSON(chatHistory))
		}
	})
}

// LogLLMResponse records the raw model output and the processed payload,
// tagged with the normalization outcome.
func (s *Session) LogLLMResponse(raw string, processed any, outcome string, meta map[string]any) {
	s.block("LLM RESPONSE", "-", func(w io.Writer) {
		fmt.Fprintf(w, "LLM RESPONSE PROCESSED (%s)\n", strings.ToUpper(outcome))
		writeMeta(w, meta)
		section2(w, "RAW LLM OUTPUT", raw)
		section2(w, "PROCESSED JSON OUTPUT", pretty(processed))
	})
}

// LogTutorialRequest records an incoming tutorial request.
func (s *Session) LogTutorialRequest(stage int, chatContext, docContext string) {
	s.block("TUTORIAL REQUEST", "-", func(w io.Writer) {
		fmt.Fprintln(w, "TUTORIAL REQUEST RECEIVED")
		fmt.Fprintf(w, "Stage: %d\n\n", stage)
		if chatContext != "" {
			section(w, "CHAT CONTEXT", prettyIfJSON(chatContext))
		}
		if docContext != "" {
			section(w, "DOCUMENT CONTEXT", prettyIfJSON(docContext))
		}
	})
}

// LogTutorialResponse records a tutorial reply.
func (s *Session) LogTutorialResponse(raw string, processed any, meta map[string]any) {
	s.block("TUTORIAL RESPONSE", "-", func(w io.Writer) {
		fmt.Fprintln(w, "TUTORIAL RESPONSE GENERATED")
		writeMeta(w, meta)
		section2(w, "RAW TUTORIAL OUTPUT", raw)
		section2(w, "PROCESSED JSON OUTPUT", pretty(processed))
	})
}

// LogError records a processing failure with its context.
func (s *Session) LogError(errType, message string, context map[string]any) {
	s.block("ERROR", "!", func(w io.Writer) {
		fmt.Fprintf(w, "ERROR OCCURRED: %s\n", errType)
		fmt.Fprintf(w, "Error Message: %s\n\n", message)
		if len(context) > 0 {
			section(w, "ERROR CONTEXT", pretty(context))
		}
	})
}

// LogMessage records a one-line progress note.
func (s *Session) LogMessage(message string) {
	s.write(func(w io.Writer) {
		fmt.Fprintln(w, center(" "+strings.ToUpper(message)+" ", "*"))
	})
}

// End appends the closing banner with the session duration.
func (s *Session) End() {
	if s == nil {
		return
	}
	duration := time.Since(s.Start).Round(time.Second)
	s.block("SESSION END", "-", func(w io.Writer) {
		fmt.Fprintf(w, "Session End: %s\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Session Duration: %s\n", duration)
		line := strings.Repeat("=", bannerWidth)
		fmt.Fprintf(w, "\n%s\nEND OF LOG\n%s\n", line, line)
	})
	log.Info("conversation session ended", "user", s.User, "session", s.ID, "duration", duration)
}

// --- internals ---

func (s *Session) block(title, char string, body func(io.Writer)) {
	s.write(func(w io.Writer) {
		line := strings.Repeat(char, bannerWidth)
		fmt.Fprintf(w, "\n%s\n%s\n%s\n", line, center(" "+title+" ", char), line)
		fmt.Fprintf(w, "\n[%s] ", time.Now().Format("2006-01-02 15:04:05"))
		body(w)
	})
}

func (s *Session) write(body func(io.Writer)) {
	if s == nil || s.disabled || s.Path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.append(body); err != nil {
		log.Warn("conversation log write failed", "path", s.Path, "error", err)
	}
}

func (s *Session) append(body func(io.Writer)) error {
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	body(f)
	return f.Close()
}

func section(w io.Writer, title, body string) {
	line := strings.Repeat("-", 40)
	fmt.Fprintf(w, "%s:\n%s\n%s\n%s\n\n", title, line, body, line)
}

func section2(w io.Writer, title, body string) {
	line := strings.Repeat("=", 50)
	fmt.Fprintf(w, "%s:\n%s\n%s\n%s\n\n", title, line, body, line)
}

func writeMeta(w io.Writer, meta map[string]any) {
	if len(meta) == 0 {
		fmt.Fprintln(w)
		return
	}
	for _, key := range []string{"model", "prompt_name", "stage", "stage_title", "tokens", "edit_summary"} {
		if v, ok := meta[key]; ok {
			fmt.Fprintf(w, "%s: %v\n", titleCase(key), v)
		}
	}
	fmt.Fprintln(w)
}

func titleCase(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

func pretty(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// prettyIfJSON re-indents a JSON string, or returns it untouched.
func prettyIfJSON(s string) string {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return pretty(v)
}

func center(s, pad string) string {
	if len(s) >= bannerWidth {
		return s
	}
	total := bannerWidth - len(s)
	left := total / 2
	return strings.Repeat(pad, left) + s + strings.Repeat(pad, total-left)
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return strings.TrimSpace(s)
}
