package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"announcer/internal/announce"
)

// ansi maps palette colors to the 16 basic terminal colors.
var ansi = [...]string{
	announce.Black:       "0",
	announce.DarkBlue:    "4",
	announce.DarkGreen:   "2",
	announce.DarkAqua:    "6",
	announce.DarkRed:     "1",
	announce.DarkPurple:  "5",
	announce.Gold:        "3",
	announce.Gray:        "7",
	announce.DarkGray:    "8",
	announce.Blue:        "12",
	announce.Green:       "10",
	announce.Aqua:        "14",
	announce.Red:         "9",
	announce.LightPurple: "13",
	announce.Yellow:      "11",
	announce.White:       "15",
}

// Render turns "§x" markers into terminal styles. Unknown markers are dropped.
func Render(r *lipgloss.Renderer, text string) string {
	if !strings.ContainsRune(text, announce.Marker) {
		return text
	}
	var (
		b     strings.Builder
		seg   strings.Builder
		style = r.NewStyle()
		skip  bool
	)
	flush := func() {
		if seg.Len() == 0 {
			return
		}
		b.WriteString(style.Render(seg.String()))
		seg.Reset()
	}
	for _, ch := range text {
		if skip {
			skip = false
			if ch < 0x80 {
				if c, ok := announce.ColorFromDigit(byte(ch)); ok {
					flush()
					style = r.NewStyle().Foreground(lipgloss.Color(ansi[c]))
				}
			}
			continue
		}
		if ch == announce.Marker {
			skip = true
			continue
		}
		seg.WriteRune(ch)
	}
	flush()
	return b.String()
}
