package fitlog

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenSeparator
	tokenComponent
	tokenUncertainty
	tokenInitFile
)

// field is one positional value of a component line.
type field struct {
	text    string
	missing bool // "---"
	fixed   bool // written between brackets
}

// token is one classified line of a fit log.
type token struct {
	kind tokenKind
	line int
	text string
	// name is the component type of a component line, or the path of an init file line.
	name   string
	fields []field
}

const minSeparatorLen = 21

var (
	componentLine   = regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s*:\s*([(\[].*)$`)
	uncertaintyLine = regexp.MustCompile(`^\s*([(\[].*)$`)
	initFileLine    = regexp.MustCompile(`^\s*Init\.\s*par\.\s*file\s*:\s*(.*?)\s*$`)
)

// lex splits a fit log into classified lines.
func lex(r io.Reader) ([]token, error) {
	var toks []token
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 1; s.Scan(); n++ {
		toks = append(toks, classify(n, strings.TrimRight(s.Text(), "\r")))
	}
	return toks, s.Err()
}

func classify(n int, text string) token {
	t := token{kind: tokenText, line: n, text: text}

	if trimmed := strings.TrimSpace(text); len(trimmed) >= minSeparatorLen && strings.Trim(trimmed, "-") == "" {
		t.kind = tokenSeparator
		return t
	}
	if m := initFileLine.FindStringSubmatch(text); m != nil {
		t.kind = tokenInitFile
		t.name = m[1]
		return t
	}
	if m := componentLine.FindStringSubmatch(text); m != nil {
		t.kind = tokenComponent
		t.name = m[1]
		t.fields = splitFields(m[2])
		return t
	}
	if m := uncertaintyLine.FindStringSubmatch(text); m != nil {
		t.kind = tokenUncertainty
		t.fields = splitFields(m[1])
	}
	return t
}

func isSeparator(c byte) bool {
	return c == ' ' || c == '\t' || c == ','
}

// splitFields cuts "( x, y) a b [c]" into its values.
// Parentheses only group. A bracketed value, or each value of a bracketed group, is fixed.
func splitFields(s string) []field {
	var fields []field
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				end = len(s) - i
			}
			for _, v := range strings.FieldsFunc(s[i+1:i+end], func(r rune) bool { return r < 128 && isSeparator(byte(r)) }) {
				fields = append(fields, newField(v, true))
			}
			i += end + 1
		case c == '(' || c == ')' || c == ']' || isSeparator(c):
			i++
		default:
			j := i
			for j < len(s) && !isSeparator(s[j]) && !strings.ContainsRune("()[]", rune(s[j])) {
				j++
			}
			fields = append(fields, newField(s[i:j], false))
			i = j
		}
	}
	return fields
}

func newField(text string, fixed bool) field {
	// GALFIT surrounds suspicious values with stars.
	text = strings.Trim(text, "*")
	return field{text: text, missing: text == "---", fixed: fixed}
}
