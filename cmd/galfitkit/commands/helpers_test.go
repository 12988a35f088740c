package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/galaxy-morphology/galfitkit/internal/testutils"
	"github.com/stretchr/testify/require"
)

// imageHDU returns an image extension of 2x2 32 bits floats.
func imageHDU(cards ...string) testutils.FITSHDU {
	head := []string{
		testutils.FITSCard("XTENSION", testutils.FITSString("IMAGE")),
		testutils.FITSCard("BITPIX", "-32"),
		testutils.FITSCard("NAXIS", "2"),
		testutils.FITSCard("NAXIS1", "2"),
		testutils.FITSCard("NAXIS2", "2"),
	}
	return testutils.FITSHDU{Cards: append(head, cards...), Data: bytes.Repeat([]byte{0x3f}, 2*2*4)}
}

// imgblock returns the units of a GALFIT output image block. The model unit is left out when withModel is false.
func imgblock(withModel bool) []testutils.FITSHDU {
	c, s := testutils.FITSCard, testutils.FITSString
	hdus := []testutils.FITSHDU{
		{Cards: []string{c("SIMPLE", "T"), c("BITPIX", "8"), c("NAXIS", "0"), c("EXTEND", "T")}},
		imageHDU(
			c("OBJECT", s("gal.fits[1:100,1:100]")),
			c("TELESCOP", s("Subaru")),
			c("EXPTIME", "120.0"),
			c("CRPIX1", "50.5"),
			c("CTYPE1", s("RA---SIN")),
		),
	}
	if withModel {
		hdus = append(hdus, imageHDU(
			c("OBJECT", s("model")),
			c("INITFILE", s("galfit.feedme")),
			c("COMP_1", s("sersic")),
			c("1_XC", s("49.9926 +/- 0.0133")),
			c("1_YC", s("50.0427 +/- 0.0141")),
			c("1_MAG", s("15.8762 +/- 0.0021")),
			c("1_RE", s("4.3456 +/- 0.0420")),
			c("1_N", s("2.1e +/- 0.02")),
			c("1_AR", s("0.7311 +/- 0.0010")),
			c("1_PA", s("[35.0000]")),
			c("COMP_2", s("sky")),
			c("2_XC", s("[50.0000]")),
			c("2_YC", s("[50.0000]")),
			c("2_SKY", s("1.392 +/- 0.004")),
			c("2_DSDX", s("[0.000e+00]")),
			c("2_DSDY", s("[0.000e+00]")),
			c("CHISQ", "10006.734"),
			c("NDOF", "9987"),
			c("NFREE", "6"),
			c("NFIX", "5"),
			c("CHI2NU", "1.002"),
		))
	}
	return append(hdus, imageHDU(c("OBJECT", s("residual map"))))
}

// fitDir returns a directory holding a fit: its configuration, fit log and, if asked, output image block.
func fitDir(t *testing.T, withImage, withModel bool) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{"galfit.feedme", "fit.log", "galfit.stdout"} {
		copyFixture(t, name, dir)
	}
	if withImage {
		testutils.WriteFITS(t, dir, "imgblock.fits", imgblock(withModel)...)
	}
	return dir
}

// copyFixture copies a file from testdata into dir and returns its new path.
func copyFixture(t *testing.T, name, dir string) string {
	t.Helper()

	dst := filepath.Join(dir, name)
	require.NoError(t, testutils.CopyFile(filepath.Join("testdata", name), dst), "Setup: could not copy %s", name)
	return dst
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	d, err := os.ReadFile(path)
	require.NoError(t, err, "could not read %s", path)
	return string(d)
}
