package prompt

import "strings"

// Fragment names shared by every stage.
const (
	SituationAndTone = "situation_and_tone"
	ResponseStyle    = "response_style"
)

// Combine joins the situational/tone fragment, the stage fragment, and the
// response-style fragment into one system prompt. Each part is trimmed and
// the parts are separated by blank lines.
func Combine(tone, stage, style string) string {
	return strings.TrimSpace(tone) + "\n\n" + strings.TrimSpace(stage) + "\n\n" + strings.TrimSpace(style)
}

// Fill substitutes the {chat} and {doc} placeholders with live context.
// Replacement is literal, so braces inside the chat or document content are
// carried through untouched.
func Fill(template, chat, doc string) string {
	return strings.NewReplacer("{chat}", chat, "{doc}", doc).Replace(template)
}

// FillTutorial substitutes the tutorial scaffolding placeholders while
// keeping {chat} and {doc} in place for the later context fill.
func FillTutorial(template, stagesList, stageTitle string) string {
	return strings.NewReplacer(
		"{stages_list}", stagesList,
		"{stage_title}", stageTitle,
	).Replace(template)
}

// Combined loads and composes the full system prompt for one stage.
func (s *Store) Combined(stageName, situationVersion, responseVersion string) (string, error) {
	tone, err := s.LoadGeneral(SituationAndTone, situationVersion)
	if err != nil {
		return "", err
	}
	stagePrompt, err := s.LoadStage(stageName, "latest")
	if err != nil {
		return "", err
	}
	style, err := s.LoadGeneral(ResponseStyle, responseVersion)
	if err != nil {
		return "", err
	}
	return Combine(tone, stagePrompt, style), nil
}
