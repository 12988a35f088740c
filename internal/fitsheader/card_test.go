package fitsheader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCard(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		card string

		want    Card
		wantEnd bool
	}{
		"Logical value":       {card: "SIMPLE  =                    T / conforms to FITS standard", want: Card{Key: "SIMPLE", Value: "T", Comment: "conforms to FITS standard"}},
		"Integer value":       {card: "NAXIS   =                    2", want: Card{Key: "NAXIS", Value: "2"}},
		"String value":        {card: "OBJECT  = 'model   '           / Component type", want: Card{Key: "OBJECT", Value: "model", Comment: "Component type", Quoted: true}},
		"Escaped quote":       {card: "OBSERVER= 'O''Brien'", want: Card{Key: "OBSERVER", Value: "O'Brien", Quoted: true}},
		"Slash inside string": {card: "1_XC    = '1.0 +/- 0.1' / x", want: Card{Key: "1_XC", Value: "1.0 +/- 0.1", Comment: "x", Quoted: true}},
		"Leading spaces kept": {card: "FILTER  = '  r'", want: Card{Key: "FILTER", Value: "  r", Quoted: true}},
		"Unterminated string": {card: "OBJECT  = 'gal", want: Card{Key: "OBJECT", Value: "'gal"}},
		"Empty value":         {card: "BLANK   =", want: Card{}},
		"Commentary card":     {card: "COMMENT   fit results", want: Card{}},
		"History card":        {card: "HISTORY   not a value", want: Card{}},
		"Short key":           {card: "A", want: Card{}},
		"End card":            {card: "END", wantEnd: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, end := parseCard(tc.card)
			require.Equal(t, tc.wantEnd, end, "parseCard should detect the END card")
			require.Equal(t, tc.want, got, "parseCard should return the expected card")
		})
	}
}

func TestDataSize(t *testing.T) {
	t.Parallel()

	hdr := func(kv ...string) Header {
		var h Header
		for i := 0; i+1 < len(kv); i += 2 {
			h.Cards = append(h.Cards, Card{Key: kv[i], Value: kv[i+1]})
		}
		return h
	}

	tests := map[string]struct {
		header Header

		want    int64
		wantErr bool
	}{
		"No data":       {header: hdr("BITPIX", "8", "NAXIS", "0")},
		"Float image":   {header: hdr("BITPIX", "-32", "NAXIS", "2", "NAXIS1", "100", "NAXIS2", "50"), want: 20000},
		"Binary table":  {header: hdr("BITPIX", "8", "NAXIS", "2", "NAXIS1", "16", "NAXIS2", "3", "PCOUNT", "10", "GCOUNT", "1"), want: 58},
		"Random groups": {header: hdr("BITPIX", "16", "NAXIS", "2", "NAXIS1", "0", "NAXIS2", "3", "GROUPS", "T", "PCOUNT", "2", "GCOUNT", "4"), want: 40},

		"Error without BITPIX": {header: hdr("NAXIS", "1", "NAXIS1", "10"), wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := dataSize(tc.header)
			if tc.wantErr {
				require.Error(t, err, "dataSize should return an error")
				return
			}
			require.NoError(t, err, "dataSize should not return an error")
			require.Equal(t, tc.want, got, "dataSize should return the data unit size")
			require.Zero(t, padded(got)%blockSize, "padded size should be a multiple of the block size")
		})
	}
}
