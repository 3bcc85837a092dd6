package pattern

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultDuration = 0.1
	defaultChannel  = 0
	defaultRepeats  = 1

	fieldsPerStep = 3
)

var commaSep = regexp.MustCompile(`\s*,\s*`)

// ParseSteps parses "<repeats>,<color>,<seconds>,<led>,..." into a repeat
// count and steps. It never fails: bad numbers fall back to defaults and a
// trailing group of fewer than three fields is dropped.
func ParseSteps(text string) (repeats int, steps []Step) {
	parts := commaSep.Split(strings.TrimSpace(text), -1)

	repeats, err := strconv.Atoi(parts[0])
	if err != nil {
		repeats = defaultRepeats
	}

	for i := 1; i+fieldsPerStep <= len(parts); i += fieldsPerStep {
		steps = append(steps, Step{
			Color:    parts[i],
			Duration: parseDuration(parts[i+1]),
			Channel:  parseChannel(parts[i+2]),
		})
	}
	return repeats, steps
}

func parseDuration(s string) float64 {
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return defaultDuration
	}
	return d
}

func parseChannel(s string) int {
	ch, err := strconv.Atoi(s)
	if err != nil || ch < 0 {
		return defaultChannel
	}
	return ch
}

// FormatSteps is the inverse of ParseSteps. It returns "" when there are
// no steps or repeats is zero.
func FormatSteps(repeats int, steps []Step) string {
	if len(steps) == 0 || repeats == 0 {
		return ""
	}
	return joinSteps(repeats, steps)
}

// storedSteps is FormatSteps for the settings store. Looping patterns are
// written with a repeat count of 0 so they load back as looping.
func storedSteps(repeats int, steps []Step) string {
	if len(steps) == 0 {
		return ""
	}
	return joinSteps(max(repeats, 0), steps)
}

func joinSteps(repeats int, steps []Step) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(repeats))
	for _, s := range steps {
		b.WriteByte(',')
		b.WriteString(s.Color)
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(s.Duration, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(s.Channel))
	}
	return b.String()
}
