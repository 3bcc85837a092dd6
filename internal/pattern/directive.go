package pattern

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	colorFadeMS = 100
	offFadeMS   = 300

	defaultBlinkSeconds = 0.3

	prefixMeta        = "~"
	prefixColor       = "#"
	tokenOff          = "~off"
	prefixBlink       = "~blink:"
	prefixPatternStop = "~pattern-stop:"
	prefixPattern     = "~pattern:"
)

// Directive is the parsed meaning of a play token. It is one of
// LiteralColor, Off, Blink, StopNamed, AdHocPattern or CatalogLookup.
type Directive interface {
	directive()
}

// LiteralColor fades straight to Color without creating a pattern.
type LiteralColor struct{ Color string }

// Off stops every pattern and fades to black.
type Off struct{}

// Blink alternates Color and black, Count times, Seconds per half.
// Token is the original text and becomes the pattern's id and name.
type Blink struct {
	Token   string
	Color   string
	Count   int
	Seconds float64
}

// StopNamed stops the pattern with id Name.
type StopNamed struct{ Name string }

// AdHocPattern plays Text as a temporary pattern called Name.
type AdHocPattern struct{ Name, Text string }

// CatalogLookup plays the catalog pattern named or identified by Token.
type CatalogLookup struct{ Token string }

func (LiteralColor) directive()  {}
func (Off) directive()           {}
func (Blink) directive()         {}
func (StopNamed) directive()     {}
func (AdHocPattern) directive()  {}
func (CatalogLookup) directive() {}

var blinkRe = regexp.MustCompile(`^~blink:(#?\w+)-(\d+)(?:-(.+))?$`)

// ParseDirective classifies a play token. Tokens starting with "~" that
// are not a known directive fail with ErrUnknownDirective; known ones
// with bad syntax fail with ErrMalformedDirective.
func ParseDirective(token string) (Directive, error) {
	switch {
	case strings.HasPrefix(token, prefixColor):
		return LiteralColor{Color: token}, nil

	case !strings.HasPrefix(token, prefixMeta):
		return CatalogLookup{Token: token}, nil

	case token == tokenOff:
		return Off{}, nil

	case strings.HasPrefix(token, prefixBlink):
		return parseBlink(token)

	case strings.HasPrefix(token, prefixPatternStop):
		return StopNamed{Name: token[strings.LastIndex(token, ":")+1:]}, nil

	case strings.HasPrefix(token, prefixPattern):
		parts := strings.Split(token, ":")
		if len(parts) != 3 || parts[1] == "" {
			return nil, fmt.Errorf("%w: %q needs ~pattern:<name>:<steps>", ErrMalformedDirective, token)
		}
		return AdHocPattern{Name: parts[1], Text: parts[2]}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownDirective, token)
}

func parseBlink(token string) (Directive, error) {
	m := blinkRe.FindStringSubmatch(token)
	if m == nil {
		return nil, fmt.Errorf("%w: %q needs ~blink:<color>-<count>[-<seconds>]", ErrMalformedDirective, token)
	}

	count, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("%w: blink count %q: %w", ErrMalformedDirective, m[2], err)
	}

	secs, err := strconv.ParseFloat(m[3], 64)
	if err != nil || secs <= 0 || math.IsInf(secs, 0) || math.IsNaN(secs) {
		secs = defaultBlinkSeconds
	}

	return Blink{
		Token:   token,
		Color:   NormalizeColor(m[1]),
		Count:   count,
		Seconds: secs,
	}, nil
}

// blinkPattern builds the two-step pattern for a Blink directive.
func blinkPattern(b Blink) *Pattern {
	return &Pattern{
		ID:      b.Token,
		Name:    b.Token,
		Repeats: b.Count,
		Steps: []Step{
			{Color: b.Color, Duration: b.Seconds},
			{Color: black, Duration: b.Seconds},
		},
		Temporary: true,
	}
}

// adHocPattern builds the temporary pattern for an AdHocPattern directive.
func adHocPattern(a AdHocPattern) *Pattern {
	repeats, steps := ParseSteps(a.Text)
	return &Pattern{
		ID:        a.Name,
		Name:      a.Name,
		Repeats:   repeats,
		Steps:     steps,
		Temporary: true,
	}
}
