// Package stage holds the fixed worldbuilding stage table: an ordered
// mapping from stage index to a versioned prompt reference.
package stage

import (
	"fmt"
	"strings"
)

// Ref identifies a stored prompt as name:version.
type Ref struct {
	Name    string
	Version string
}

func (r Ref) String() string {
	return r.Name + ":" + r.Version
}

// ParseRef splits a "name:version" reference. A missing version means latest.
func ParseRef(s string) Ref {
	name, version, ok := strings.Cut(s, ":")
	if !ok || version == "" {
		version = "latest"
	}
	return Ref{Name: name, Version: version}
}

// UnknownStageError reports a stage index outside the configured table.
type UnknownStageError struct {
	Stage int
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %d", e.Stage)
}

// prompts lists every stage prompt in order. Stage indices are the positions
// in this slice, starting at 0.
var prompts = []string{
	// Stage 0: Tutorial
	"tutorial:latest",

	// Section 1: Getting Started
	"big_idea:latest",
	"working_title:latest",
	"genre:latest",
	"main_vibe:latest",
	"one_sentence_pitch:latest",

	// Section 2: Worldbuilding Basics
	"setting:latest",
	"time_period:latest",
	"map:latest",
	"environment:latest",
	"magic_exist:latest",

	// Section 3: Worldbuilding Expanded
	"magic_rules:latest",
	"history:latest",
	"cultures:latest",
	"government:latest",
	"everyday_life:latest",
	"creatures:latest",
	"plants_resources:latest",

	// Section 4: Characters
	"hero:latest",
	"hero_goal:latest",
	"hero_obstacle:latest",
	"villain:latest",
	"villain_motive:latest",
	"ally:latest",
	"other_chars:latest",
	"char_secrets:latest",

	// Section 5: Plot Basics
	"story_shape:latest",
	"inciting_incident:latest",
	"turning_point1:latest",
	"midpoint:latest",
	"turning_point2:latest",
	"climax:latest",
	"resolution:latest",

	// Section 6: Plot Expanded
	"stakes:latest",
	"theme:latest",
	"subplots:latest",
	"foreshadowing:latest",
	"scene_list:latest",

	// Section 7: Writing Style
	"pov:latest",
	"tone:latest",
	"audience:latest",
	"length_goal:latest",
	"sample_para:latest",
}

var titles = []string{
	"Stage 0: Tutorial",

	"Stage 1: Your Big Idea",
	"Stage 2: Working Title",
	"Stage 3: Genre & Flavor",
	"Stage 4: Main Vibe",
	"Stage 5: One-Sentence Pitch",

	"Stage 6: Setting",
	"Stage 7: Time Period",
	"Stage 8: The Map",
	"Stage 9: The Environment",
	"Stage 10: Magic: Yes or No",

	"Stage 11: Magic Rules",
	"Stage 12: History Snapshot",
	"Stage 13: Groups & Cultures",
	"Stage 14: Government & Power",
	"Stage 15: Everyday Life",
	"Stage 16: Creatures",
	"Stage 17: Plants & Resources",

	"Stage 18: Your Hero",
	"Stage 19: What They Want",
	"Stage 20: What's in Their Way",
	"Stage 21: Your Villain",
	"Stage 22: Why They Oppose",
	"Stage 23: Sidekick or Ally",
	"Stage 24: Other Important Characters",
	"Stage 25: Character Secrets",

	"Stage 26: Choose a Story Shape",
	"Stage 27: Inciting Incident",
	"Stage 28: Turning Point #1",
	"Stage 29: Midpoint Twist",
	"Stage 30: Turning Point #2",
	"Stage 31: Climax",
	"Stage 32: Resolution",

	"Stage 33: Stakes",
	"Stage 34: Theme (Optional)",
	"Stage 35: Subplots",
	"Stage 36: Foreshadowing",
	"Stage 37: Scene List",

	"Stage 38: Point of View",
	"Stage 39: Tone",
	"Stage 40: Audience",
	"Stage 41: Length Goal",
	"Stage 42: Sample Paragraph",
}

// Count is the number of configured stages.
func Count() int { return len(prompts) }

// Resolve maps a stage index to its prompt reference.
func Resolve(stage int) (Ref, error) {
	if stage < 0 || stage >= len(prompts) {
		return Ref{}, &UnknownStageError{Stage: stage}
	}
	return ParseRef(prompts[stage]), nil
}

// Title returns the display title for a stage, or "Invalid stage number"
// when out of range.
func Title(stage int) string {
	if stage < 0 || stage >= len(titles) {
		return "Invalid stage number"
	}
	return titles[stage]
}
