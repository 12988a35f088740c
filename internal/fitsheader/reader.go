package fitsheader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ubuntu/decorate"
)

// ErrTruncated is returned when a FITS stream ends inside a header or data unit.
var ErrTruncated = errors.New("truncated FITS file")

// Read decodes every header of a FITS stream, skipping their data units.
// On a truncated stream, the headers read so far are returned with the error.
func Read(r io.Reader) ([]Header, error) {
	var hdrs []Header
	for {
		h, err := readHeader(r)
		if errors.Is(err, io.EOF) {
			return hdrs, nil
		}
		if err != nil {
			return hdrs, fmt.Errorf("HDU %d: %w", len(hdrs), err)
		}
		hdrs = append(hdrs, h)

		size, err := dataSize(h)
		if err != nil {
			return hdrs, fmt.Errorf("HDU %d: %w", len(hdrs)-1, err)
		}
		if _, err := io.CopyN(io.Discard, r, padded(size)); err != nil {
			return hdrs, fmt.Errorf("HDU %d: %w: data unit: %v", len(hdrs)-1, ErrTruncated, err)
		}
	}
}

// readHeader reads header blocks up to the END card.
// It returns io.EOF when the stream ends cleanly before a new header.
func readHeader(r io.Reader) (Header, error) {
	var h Header
	block := make([]byte, blockSize)
	for first := true; ; first = false {
		if _, err := io.ReadFull(r, block); err != nil {
			if first && errors.Is(err, io.EOF) {
				return h, io.EOF
			}
			return h, fmt.Errorf("%w: header: %v", ErrTruncated, err)
		}
		// Some writers pad the end of file with zeros.
		if first && block[0] == 0 {
			return h, io.EOF
		}

		for i := 0; i < blockSize; i += cardSize {
			c, end := parseCard(string(block[i : i+cardSize]))
			if end {
				return h, nil
			}
			if c.Key != "" {
				h.Cards = append(h.Cards, c)
			}
		}
	}
}

// dataSize returns the size in bytes of the data unit following h.
func dataSize(h Header) (int64, error) {
	shape := h.Shape()
	if len(shape) == 0 {
		return 0, nil
	}
	bitpix, ok := h.Int("BITPIX")
	if !ok {
		return 0, errors.New("missing BITPIX")
	}
	if bitpix < 0 {
		bitpix = -bitpix
	}

	// Random groups have no data along NAXIS1.
	if groups, _ := h.Get("GROUPS"); groups == "T" && shape[0] == 0 {
		shape = shape[1:]
	}
	n := int64(1)
	for _, l := range shape {
		n *= int64(l)
	}

	pcount, gcount := int64(0), int64(1)
	if v, ok := h.Int("PCOUNT"); ok {
		pcount = int64(v)
	}
	if v, ok := h.Int("GCOUNT"); ok {
		gcount = int64(v)
	}
	return int64(bitpix) / 8 * gcount * (pcount + n), nil
}

func padded(n int64) int64 {
	return (n + blockSize - 1) / blockSize * blockSize
}

// ReadText decodes a textual header dump, one "KEY = value / comment" card per line.
// Headers are separated by END lines or "# HDU" lines.
func ReadText(r io.Reader) ([]Header, error) {
	var hdrs []Header
	var cur Header
	flush := func() {
		if len(cur.Cards) > 0 {
			hdrs = append(hdrs, cur)
		}
		cur = Header{}
	}

	s := bufio.NewScanner(r)
	for s.Scan() {
		l := strings.TrimRight(s.Text(), "\r")
		trimmed := strings.TrimSpace(l)
		switch {
		case trimmed == "":
		case trimmed == "END", strings.HasPrefix(trimmed, "# HDU"):
			flush()
		case len(l) >= 10 && l[8:10] == "= ":
			if c, _ := parseCard(l); c.Key != "" {
				cur.Cards = append(cur.Cards, c)
			}
		default:
			key, value, found := strings.Cut(trimmed, "=")
			if !found || strings.HasPrefix(trimmed, "#") {
				continue
			}
			c := Card{Key: strings.TrimSpace(key)}
			c.Value, c.Comment, c.Quoted = parseValue(value)
			cur.Cards = append(cur.Cards, c)
		}
	}
	flush()

	return hdrs, s.Err()
}

// ReadFile reads the headers of the FITS file at path.
// A textual header dump is accepted too, see ReadText.
func ReadFile(path string) (hdrs []Header, err error) {
	defer decorate.OnError(&err, "could not read FITS headers of %s", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, blockSize)
	start, err := br.Peek(cardSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	if isBinary(start) {
		return Read(br)
	}
	return ReadText(br)
}

// isBinary reports whether start is the first card of a FITS file.
func isBinary(start []byte) bool {
	return len(start) == cardSize && bytes.HasPrefix(start, []byte("SIMPLE  =")) && !bytes.ContainsAny(start, "\r\n")
}
