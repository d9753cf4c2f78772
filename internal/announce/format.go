package announce

import (
	"fmt"
	"strings"
)

// Marker is the format-marker rune understood by Minecraft clients.
const Marker = '§'

// ShortCode introduces a color code in templates ("&a", "&F", ...).
const ShortCode = '&'

// Color is one of the 16 chat colors, valued by its hex digit.
type Color uint8

const (
	Black Color = iota
	DarkBlue
	DarkGreen
	DarkAqua
	DarkRed
	DarkPurple
	Gold
	Gray
	DarkGray
	Blue
	Green
	Aqua
	Red
	LightPurple
	Yellow
	White
)

var colorNames = [...]string{
	"BLACK", "DARK_BLUE", "DARK_GREEN", "DARK_AQUA",
	"DARK_RED", "DARK_PURPLE", "GOLD", "GRAY",
	"DARK_GRAY", "BLUE", "GREEN", "AQUA",
	"RED", "LIGHT_PURPLE", "YELLOW", "WHITE",
}

const hexDigits = "0123456789abcdef"

// Colors returns the palette in code order.
func Colors() []Color {
	out := make([]Color, len(colorNames))
	for i := range out {
		out[i] = Color(i)
	}
	return out
}

func (c Color) Valid() bool { return int(c) < len(colorNames) }

// Name returns the config name, e.g. "LIGHT_PURPLE".
func (c Color) Name() string {
	if !c.Valid() {
		return fmt.Sprintf("Color(%d)", uint8(c))
	}
	return colorNames[c]
}

func (c Color) String() string { return c.Name() }

// Digit returns the lowercase hex digit of the color.
func (c Color) Digit() byte {
	if !c.Valid() {
		return 'f'
	}
	return hexDigits[c]
}

// Code returns the template short code, e.g. "&d".
func (c Color) Code() string { return string([]byte{ShortCode, c.Digit()}) }

// Format returns the rendered marker, e.g. "§d".
func (c Color) Format() string { return string(Marker) + string(c.Digit()) }

// ParseColor resolves a palette name case-insensitively.
// Spaces and dashes are accepted in place of underscores ("light purple").
func ParseColor(name string) (Color, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.NewReplacer(" ", "_", "-", "_").Replace(n)
	for i, cn := range colorNames {
		if cn == n {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("unknown color %q", name)
}

// ColorFromDigit maps a hex digit (either case) to its color.
func ColorFromDigit(d byte) (Color, bool) {
	switch {
	case d >= '0' && d <= '9':
		return Color(d - '0'), true
	case d >= 'a' && d <= 'f':
		return Color(d-'a') + 10, true
	case d >= 'A' && d <= 'F':
		return Color(d-'A') + 10, true
	}
	return 0, false
}

// Format replaces every "&<hex>" short code with "§<hex>".
// Anything else, including a trailing '&', is left untouched.
func Format(s string) string {
	if strings.IndexByte(s, ShortCode) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == ShortCode && i+1 < len(s) {
			if c, ok := ColorFromDigit(s[i+1]); ok {
				b.WriteString(c.Format())
				i++
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// Strip removes "§x" markers, for transports that cannot render them.
func Strip(s string) string {
	if !strings.ContainsRune(s, Marker) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	skip := false
	for _, r := range s {
		switch {
		case skip:
			skip = false
		case r == Marker:
			skip = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
