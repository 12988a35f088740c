package testutils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// FITSHDU is one header and data unit of a generated FITS file.
type FITSHDU struct {
	// Cards are raw header cards, see FITSCard. END is appended.
	Cards []string
	Data  []byte
}

// FITSCard formats a "KEY     = value" header card.
func FITSCard(key, value string) string {
	return fmt.Sprintf("%-8s= %s", key, value)
}

// FITSString quotes s as a FITS string value.
func FITSString(s string) string {
	s = strings.ReplaceAll(s, "'", "''")
	return fmt.Sprintf("'%-8s'", s)
}

// FITSBytes returns the content of a FITS file made of hdus.
// Cards are padded to 80 columns, headers and data units to 2880 bytes blocks.
func FITSBytes(t *testing.T, hdus ...FITSHDU) []byte {
	t.Helper()

	var b bytes.Buffer
	for _, hdu := range hdus {
		for _, c := range hdu.Cards {
			require.LessOrEqual(t, len(c), 80, "Setup: card %q is too long", c)
			fmt.Fprintf(&b, "%-80s", c)
		}
		fmt.Fprintf(&b, "%-80s", "END")
		pad(&b, ' ')
		b.Write(hdu.Data)
		pad(&b, 0)
	}
	return b.Bytes()
}

// WriteFITS writes a FITS file made of hdus at dir/name and returns its path.
func WriteFITS(t *testing.T, dir, name string, hdus ...FITSHDU) string {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, FITSBytes(t, hdus...), 0600), "Setup: could not write FITS file")
	return p
}

func pad(b *bytes.Buffer, c byte) {
	if r := b.Len() % 2880; r != 0 {
		b.Write(bytes.Repeat([]byte{c}, 2880-r))
	}
}
