// Package document describes the editor tool-call vocabulary and renders
// human-readable summaries of proposed edits for the conversation log.
package document

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aryann/difflib"
)

// Tool names the model may emit in a tool-call payload. They mirror the
// editor API on the frontend.
const (
	ToolInsert    = "insert"
	ToolSet       = "set"
	ToolUpdate    = "update"
	ToolDelete    = "delete"
	ToolDeleteAll = "deleteall"
	ToolFormat    = "format"
)

// KnownTool reports whether name is part of the editor vocabulary.
func KnownTool(name string) bool {
	switch name {
	case ToolInsert, ToolSet, ToolUpdate, ToolDelete, ToolDeleteAll, ToolFormat:
		return true
	}
	return false
}

// ToolName extracts the tool discriminator from a normalized payload,
// looking at both top-level tool calls and the nested document of a "both"
// response.
func ToolName(payload map[string]any) (string, bool) {
	if name, ok := payload["tool"].(string); ok {
		return name, true
	}
	if doc, ok := payload["document"].(map[string]any); ok {
		if name, ok := doc["tool"].(string); ok {
			return name, true
		}
	}
	return "", false
}

// EditSummary produces a short description of a tool call for the log. Text
// replacements (set, update) are summarized as a word diff against the
// current document text.
func EditSummary(payload map[string]any, current string) string {
	call := payload
	if doc, ok := payload["document"].(map[string]any); ok {
		call = doc
	}
	name, ok := call["tool"].(string)
	if !ok {
		return ""
	}

	if desc, ok := call["description"].(string); ok && desc != "" {
		return fmt.Sprintf("%s: %s", name, desc)
	}

	switch name {
	case ToolSet, ToolUpdate:
		if text, ok := call["text"].(string); ok {
			if diff := RenderDiff(current, text); diff != "" {
				return fmt.Sprintf("%s: %s", name, diff)
			}
		}
	case ToolInsert:
		if text, ok := call["text"].(string); ok {
			return fmt.Sprintf("insert: {+%s+}", text)
		}
	}
	return name
}

type WordDelta struct {
	Op   int
	Text string
}

// TokenizeWords splits text into word, punctuation, and whitespace runs.
func TokenizeWords(s string) []string {
	var out []string
	var cur []rune
	kind := -1 // 0=space,1=word,2=punct
	flush := func() {
		if len(cur) == 0 {
			return
		}
		out = append(out, string(cur))
		cur = cur[:0]
	}
	for _, r := range s {
		k := 2
		switch {
		case unicode.IsSpace(r):
			k = 0
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'':
			k = 1
		}
		if kind == -1 {
			kind = k
		}
		if k != kind {
			flush()
			kind = k
		}
		cur = append(cur, r)
	}
	flush()
	return out
}

// DiffWords computes a word-level delta between two texts.
func DiffWords(a, b string) []WordDelta {
	at := TokenizeWords(a)
	bt := TokenizeWords(b)
	recs := difflib.Diff(at, bt)
	out := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		switch r.Delta {
		case difflib.Common:
			out = append(out, WordDelta{Op: 0, Text: r.Payload})
		case difflib.LeftOnly:
			out = append(out, WordDelta{Op: -1, Text: r.Payload})
		case difflib.RightOnly:
			out = append(out, WordDelta{Op: +1, Text: r.Payload})
		}
	}
	return out
}

// RenderDiff renders a compact inline diff, marking insertions {+ +} and
// deletions [- -]. Adjacent tokens with the same op are merged into one
// marker. Returns "" when the texts are identical.
func RenderDiff(a, b string) string {
	deltas := DiffWords(a, b)
	var sb strings.Builder
	changed := false
	for i := 0; i < len(deltas); {
		op := deltas[i].Op
		j := i
		var run strings.Builder
		for j < len(deltas) && deltas[j].Op == op {
			run.WriteString(deltas[j].Text)
			j++
		}
		switch op {
		case 0:
			sb.WriteString(run.String())
		case -1:
			changed = true
			sb.WriteString("[-")
			sb.WriteString(run.String())
			sb.WriteString("-]")
		case +1:
			changed = true
			sb.WriteString("{+")
			sb.WriteString(run.String())
			sb.WriteString("+}")
		}
		i = j
	}
	if !changed {
		return ""
	}
	return sb.String()
}
