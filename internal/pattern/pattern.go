package pattern

import (
	"regexp"
	"strings"
)

// Step is one color transition within a pattern.
type Step struct {
	// Color is the target color, usually "#rrggbb". It is not validated.
	Color string `json:"color"`

	// Duration is both the fade time and the hold before the next step, in seconds.
	Duration float64 `json:"duration"`

	// Channel selects the LED. 0 means all LEDs.
	Channel int `json:"channel"`
}

// Pattern is a named, repeatable sequence of steps and its playback state.
type Pattern struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Steps []Step `json:"steps"`

	// Repeats is how many times the steps play through. Zero or less loops
	// until stopped.
	Repeats int `json:"repeats"`

	Playing   bool `json:"playing"`
	PlayPos   int  `json:"play_pos"`
	PlayCount int  `json:"play_count"`

	// System marks built-in patterns. They are always Locked.
	System bool `json:"system"`
	Locked bool `json:"locked"`

	// Temporary patterns are removed from the catalog when they finish.
	Temporary bool `json:"temporary"`

	task *task
}

// Output is the wire and persisted form of a pattern.
type Output struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

var nonWord = regexp.MustCompile(`\W+`)

// GenerateID derives an id from a pattern name: lowercased with every
// non-word character removed ("Police Car!" becomes "policecar").
func GenerateID(name string) string {
	return nonWord.ReplaceAllString(strings.ToLower(name), "")
}

// PatternString returns the text form of p's steps.
func (p *Pattern) PatternString() string {
	return FormatSteps(p.Repeats, p.Steps)
}

// Output returns the {id, name, pattern} form of p.
func (p *Pattern) Output() Output {
	return Output{ID: p.ID, Name: p.Name, Pattern: p.PatternString()}
}

// loops reports whether p plays until stopped.
func (p *Pattern) loops() bool {
	return p.Repeats <= 0
}

// clone returns a copy that shares nothing mutable with p.
func (p *Pattern) clone() Pattern {
	c := *p
	c.Steps = append([]Step(nil), p.Steps...)
	c.task = nil
	return c
}
