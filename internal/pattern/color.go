package pattern

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

const black = "#000000"

// NormalizeColor turns a CSS color name or hex string (with or without
// "#", three or six digits) into "#rrggbb". Anything else is returned
// unchanged; colors are passed to the device on a best-effort basis.
func NormalizeColor(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))

	if rgba, ok := colornames.Map[lower]; ok {
		c, _ := colorful.MakeColor(rgba)
		return c.Hex()
	}

	hex := strings.TrimPrefix(lower, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if c, err := colorful.Hex("#" + hex); err == nil {
		return c.Hex()
	}
	return s
}
