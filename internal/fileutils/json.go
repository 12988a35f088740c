package fileutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DecodeJSON decodes the single JSON document in r into loosely typed values.
// Numbers are kept as json.Number so their text reaches numeric repair untouched.
func DecodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("invalid JSON document: empty input")
		}
		return nil, fmt.Errorf("invalid JSON document: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid JSON document: unexpected data after the top-level value")
	}
	return v, nil
}
