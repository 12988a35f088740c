package feedme

import (
	"fmt"
	"regexp"
	"strings"
)

// HeaderKind is the label of a block header line.
type HeaderKind int

const (
	// HeaderObject is "# Object number: N".
	HeaderObject HeaderKind = iota
	// HeaderComponent is "# Component number: N".
	HeaderComponent
)

func (h HeaderKind) String() string {
	if h == HeaderComponent {
		return "Component"
	}
	return "Object"
}

// header formats a header line carrying the given number.
func (h HeaderKind) header(n int) string {
	return fmt.Sprintf("# %s number: %d", h, n)
}

var (
	headerLine = regexp.MustCompile(`^#\s*(Object|Component)\s*number:\s*(\d+)\s*$`)
	typeLine   = regexp.MustCompile(`^\s*0\)\s*([A-Za-z_]+)\b`)
)

// line is a single line of a document with its byte offset.
type line struct {
	text   string
	offset int
}

// scanLines splits text into lines, each keeping its terminator.
func scanLines(text string) []line {
	var lines []line
	off := 0
	for _, l := range strings.SplitAfter(text, "\n") {
		if l == "" {
			continue
		}
		lines = append(lines, line{text: l, offset: off})
		off += len(l)
	}
	return lines
}

// parseHeader returns the header kind of l if it is a block header.
func parseHeader(l string) (HeaderKind, bool) {
	m := headerLine.FindStringSubmatch(strings.TrimRight(l, "\r\n"))
	if m == nil {
		return HeaderObject, false
	}
	if m[1] == "Component" {
		return HeaderComponent, true
	}
	return HeaderObject, true
}

// Block is one component section of a feedme document, from its header up to the next one.
type Block struct {
	// Text is the block content, trailing whitespace trimmed and ending with a single newline.
	Text string
	// Type is the lowercase component type read from the "0)" line, or "unknown".
	Type string
	// Header is the label of the block header.
	Header HeaderKind
	// Trailer is the blank lines separating the block from the next one, kept verbatim.
	// The trailing lines of the last block of a document are its Tail instead.
	Trailer string
}

// NewBlock builds a block from text. A "# Object number: 0" header is added when the text has none.
func NewBlock(text string) Block {
	text = strings.TrimSpace(text) + "\n"
	h, ok := parseHeader(scanLines(text)[0].text)
	if !ok {
		text = HeaderObject.header(0) + "\n" + text
	}
	return newBlock(text, h)
}

func newBlock(text string, h HeaderKind) Block {
	b := Block{Text: text, Type: "unknown", Header: h}
	for _, l := range scanLines(text) {
		if m := typeLine.FindStringSubmatch(l.text); m != nil {
			b.Type = strings.ToLower(m[1])
			break
		}
	}
	return b
}

// renumbered returns the block text with its first header line carrying n.
func (b Block) renumbered(n int) string {
	for _, l := range scanLines(b.Text) {
		if _, ok := parseHeader(l.text); !ok {
			continue
		}
		eol := l.text[len(strings.TrimRight(l.text, "\r\n")):]
		return b.Text[:l.offset] + b.Header.header(n) + eol + b.Text[l.offset+len(l.text):]
	}
	return b.Text
}

// Document is a feedme file split into its prefix and component blocks.
type Document struct {
	// Prefix is the text before the first header, kept byte for byte.
	Prefix string
	Blocks []Block
	// Tail is the blank lines after the last block, kept byte for byte.
	Tail string
}

// Split parses text into a Document.
func Split(text string) (*Document, error) {
	var starts []int
	var kinds []HeaderKind
	for _, l := range scanLines(text) {
		if h, ok := parseHeader(l.text); ok {
			starts = append(starts, l.offset)
			kinds = append(kinds, h)
		}
	}
	if len(starts) == 0 {
		return nil, ErrNoHeaders
	}

	doc := &Document{Prefix: text[:starts[0]]}
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		raw := text[start:end]
		trimmed := strings.TrimRight(raw, " \t\r\n\v\f")
		b := newBlock(trimmed+"\n", kinds[i])
		if i+1 < len(starts) {
			b.Trailer = trailer(raw[len(trimmed):])
		} else {
			doc.Tail = trailer(raw[len(trimmed):])
		}
		doc.Blocks = append(doc.Blocks, b)
	}
	return doc, nil
}

// String renders the document, renumbering block headers from 1 in order.
func (d Document) String() string {
	var sb strings.Builder
	sb.WriteString(d.Prefix)
	for i, b := range d.Blocks {
		sb.WriteString(b.renumbered(i + 1))
		if i+1 < len(d.Blocks) {
			sb.WriteString(b.Trailer)
		}
	}
	sb.WriteString(d.Tail)
	return sb.String()
}

// trailer returns the lines of rest following the end of the block's last line.
func trailer(rest string) string {
	i := strings.IndexByte(rest, '\n')
	if i < 0 {
		return ""
	}
	return rest[i+1:]
}

// indexes returns the positions of the blocks of type typ.
func (d Document) indexes(typ string) []int {
	var idx []int
	for i, b := range d.Blocks {
		if b.Type == typ {
			idx = append(idx, i)
		}
	}
	return idx
}
