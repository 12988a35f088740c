// Package fitsheader reads the headers of FITS files and the fit results GALFIT stores in them.
//
// GALFIT writes an image block whose "model" extension records every component
// (COMP_1, 1_XC, 1_MAG, ...) together with the goodness of fit (CHISQ, NDOF, ...).
// Only headers are decoded, data units are skipped.
package fitsheader

import (
	"strconv"
	"strings"

	"github.com/galaxy-morphology/galfitkit/internal/numeric"
)

// Card is one keyword record of a header.
type Card struct {
	Key string
	// Value is the text of the value, unquoted for strings.
	Value   string
	Comment string
	// Quoted is set for string values.
	Quoted bool
}

// Header is the ordered keyword records of one header and data unit (HDU).
type Header struct {
	Cards []Card
}

// Get returns the value of the first card named key.
func (h Header) Get(key string) (string, bool) {
	for _, c := range h.Cards {
		if c.Key == key {
			return c.Value, true
		}
	}
	return "", false
}

// Int returns the value of key as an integer.
func (h Header) Int(key string) (int, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	return numeric.SafeInt(v)
}

// Float returns the value of key as a float. Fortran "D" exponents are accepted.
func (h Header) Float(key string) (float64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	return parseFloat(v)
}

func parseFloat(v string) (float64, bool) {
	if f, ok := numeric.SafeFloat(v); ok {
		return f, true
	}
	return numeric.SafeFloat(strings.Replace(strings.ToUpper(v), "D", "E", 1))
}

// Shape returns the NAXISn lengths of the data unit.
func (h Header) Shape() []int {
	n, ok := h.Int("NAXIS")
	if !ok || n <= 0 {
		return nil
	}
	shape := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		l, ok := h.Int(naxis(i))
		if !ok {
			return nil
		}
		shape = append(shape, l)
	}
	return shape
}

func naxis(i int) string {
	return "NAXIS" + strconv.Itoa(i)
}
