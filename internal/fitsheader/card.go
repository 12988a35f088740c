package fitsheader

import (
	"strings"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// parseCard decodes an 80 column card. end is set on the END card.
// Commentary cards (COMMENT, HISTORY, blank keys) return an empty key.
func parseCard(s string) (c Card, end bool) {
	if len(s) < 8 {
		s += strings.Repeat(" ", 8-len(s))
	}
	key := strings.TrimSpace(s[:8])
	if key == "END" {
		return Card{}, true
	}
	// The value indicator must sit in columns 9 and 10.
	if len(s) < 10 || s[8:10] != "= " {
		return Card{}, false
	}

	c.Key = key
	c.Value, c.Comment, c.Quoted = parseValue(s[10:])
	return c, false
}

// parseValue splits the value field of a card into its value and comment.
func parseValue(v string) (value, comment string, quoted bool) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "'") {
		if s, rest, ok := unquote(v); ok {
			_, comment, _ = strings.Cut(rest, "/")
			return s, strings.TrimSpace(comment), true
		}
	}

	value, comment, _ = strings.Cut(v, "/")
	return strings.TrimSpace(value), strings.TrimSpace(comment), false
}

// unquote reads a quoted string, two consecutive quotes standing for one.
// Trailing spaces are not significant. rest is the text after the closing quote.
func unquote(s string) (value, rest string, ok bool) {
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != '\'' {
			sb.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			sb.WriteByte('\'')
			i++
			continue
		}
		return strings.TrimRight(sb.String(), " "), s[i+1:], true
	}
	return "", "", false
}
