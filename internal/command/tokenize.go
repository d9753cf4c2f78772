package command

import "strings"

// Tokenize splits a command line on whitespace. Quotes and backslashes
// have no meaning; they belong to the announcement text.
func Tokenize(s string) []string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return nil
	}
	return f
}

// Rest returns the raw text after the first skip words of line, minus the
// single separator that follows them. Inner spacing is kept.
//
//	Rest(`announce add Type "/spawn"  now`, 2) == `Type "/spawn"  now`
func Rest(line string, skip int) string {
	s := strings.TrimLeft(line, " \t\r\n")
	for i := 0; i < skip; i++ {
		end := strings.IndexAny(s, " \t\r\n")
		if end < 0 {
			return ""
		}
		s = s[end:]
		if i < skip-1 {
			s = strings.TrimLeft(s, " \t\r\n")
		}
	}
	if s != "" {
		s = s[1:]
	}
	return strings.TrimRight(s, "\r\n")
}

// SplitLabel separates the top-level command from its arguments. It accepts
// an optional leading slash and a Telegram "@bot" suffix. ok is false when
// the line is not an announce command.
func SplitLabel(tokens []string) (label string, args []string, ok bool) {
	if len(tokens) == 0 {
		return "", nil, false
	}
	head := strings.TrimPrefix(tokens[0], "/")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	head = strings.ToLower(head)
	for _, l := range Labels {
		if head == l {
			return head, tokens[1:], true
		}
	}
	return "", nil, false
}
