package feedme_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/galaxy-morphology/galfitkit/internal/feedme"
	"github.com/galaxy-morphology/galfitkit/internal/testutils"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		file string

		wantTypes    []string
		wantHeaders  []feedme.HeaderKind
		wantPrefix   string
		wantTrailers []string
		wantTail     string
		wantErr      error
	}{
		"Full document": {
			file:         "galfit.feedme",
			wantTypes:    []string{"sky", "sersic", "expdisk"},
			wantHeaders:  []feedme.HeaderKind{feedme.HeaderObject, feedme.HeaderObject, feedme.HeaderComponent},
			wantTrailers: []string{"\n", "\n", ""},
		},
		"Uneven gaps are kept per block": {
			file:         "uneven_gaps.feedme",
			wantTypes:    []string{"sky", "sersic", "expdisk"},
			wantHeaders:  []feedme.HeaderKind{feedme.HeaderObject, feedme.HeaderObject, feedme.HeaderObject},
			wantTrailers: []string{"\n\n", "\n", ""},
			wantTail:     "\n",
		},
		"Compact document with mixed case type": {
			file:         "sky_last.feedme",
			wantTypes:    []string{"sersic", "sky"},
			wantHeaders:  []feedme.HeaderKind{feedme.HeaderComponent, feedme.HeaderComponent},
			wantPrefix:   "A) gal.fits\nB) out.fits\n",
			wantTrailers: []string{"", ""},
		},

		"Error when there is no header": {file: "no_header.feedme", wantErr: feedme.ErrNoHeaders},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			doc, err := feedme.Split(readFixture(t, tc.file))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr, "Split should return the expected error")
				require.ErrorIs(t, err, feedme.ErrStructural, "Split errors should be structural")
				return
			}
			require.NoError(t, err, "Split should not return an error")

			var types, trailers []string
			var headers []feedme.HeaderKind
			for _, b := range doc.Blocks {
				types = append(types, b.Type)
				headers = append(headers, b.Header)
				trailers = append(trailers, b.Trailer)
				require.Regexp(t, `^#`, b.Text, "Blocks should start with their header")
				require.Regexp(t, `\S\n$`, b.Text, "Blocks should end with a single newline")
			}
			require.Equal(t, tc.wantTypes, types, "Split should detect the component types")
			require.Equal(t, tc.wantHeaders, headers, "Split should detect the header kinds")
			require.Equal(t, tc.wantTrailers, trailers, "Split should record the blank lines after each block")
			require.Equal(t, tc.wantTail, doc.Tail, "Split should record the blank lines after the last block")
			if tc.wantPrefix != "" {
				require.Equal(t, tc.wantPrefix, doc.Prefix, "Split should keep the prefix verbatim")
			}
		})
	}
}

func TestSplitRoundTrip(t *testing.T) {
	t.Parallel()

	text := readFixture(t, "uneven_gaps.feedme")
	doc, err := feedme.Split(text)
	require.NoError(t, err, "Split should not return an error")

	require.Equal(t, text, doc.String(), "A document numbered in order should render unchanged")
}

func TestSplitKeepsPrefix(t *testing.T) {
	t.Parallel()

	text := readFixture(t, "galfit.feedme")
	doc, err := feedme.Split(text)
	require.NoError(t, err, "Split should not return an error")

	require.Equal(t, text[:len(doc.Prefix)], doc.Prefix, "Prefix should be the start of the document")
	require.Contains(t, doc.Prefix, "P) 0                   # Choose: 0=optimize", "Prefix should hold the control block")
	require.NotContains(t, doc.Prefix, "number:", "Prefix should stop before the first header")
}

func TestNewBlock(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		text string

		wantText   string
		wantType   string
		wantHeader feedme.HeaderKind
	}{
		"Header is added when missing": {
			text:       "\n 0) psf\n 1) 1 2\n\n",
			wantText:   "# Object number: 0\n0) psf\n 1) 1 2\n",
			wantType:   "psf",
			wantHeader: feedme.HeaderObject,
		},
		"Existing header is kept": {
			text:       "# Component number: 4\n 0) ExpDisk\n",
			wantText:   "# Component number: 4\n 0) ExpDisk\n",
			wantType:   "expdisk",
			wantHeader: feedme.HeaderComponent,
		},
		"Missing type is unknown": {
			text:       "# Object number: 1\n 1) 1 2\n",
			wantText:   "# Object number: 1\n 1) 1 2\n",
			wantType:   "unknown",
			wantHeader: feedme.HeaderObject,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			b := feedme.NewBlock(tc.text)
			require.Equal(t, tc.wantText, b.Text, "NewBlock should normalize the text")
			require.Equal(t, tc.wantType, b.Type, "NewBlock should detect the type")
			require.Equal(t, tc.wantHeader, b.Header, "NewBlock should detect the header kind")
		})
	}
}

func TestAddComponents(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		file string
		reqs []feedme.Request

		wantErr error
	}{
		"No requests moves sky last":         {file: "galfit.feedme"},
		"Sky already last only renumbers":    {file: "sky_last.feedme"},
		"No sersic is fine without requests": {file: "no_sersic.feedme"},

		"Insert sersic copies first sersic": {file: "galfit.feedme", reqs: []feedme.Request{{Type: "sersic"}}},
		"Insert psf below template":         {file: "galfit.feedme", reqs: []feedme.Request{{Type: "psf"}}},
		"Insert psf with custom offset":     {file: "galfit.feedme", reqs: []feedme.Request{{Type: "psf", DeltaMag: ptr(2)}}},
		"Insert several in request order": {file: "galfit.feedme", reqs: []feedme.Request{
			{Type: "psf"}, {Type: " SERSIC "}, {Type: "psf", DeltaMag: ptr(0.5)},
		}},
		"Insert into compact document": {file: "sky_last.feedme", reqs: []feedme.Request{{Type: "psf"}, {Type: "sersic"}}},

		"Uneven gaps are kept around unedited blocks":    {file: "uneven_gaps.feedme"},
		"Inserted blocks take the separator they follow": {file: "uneven_gaps.feedme", reqs: []feedme.Request{{Type: "psf"}}},

		"Error when there is no header":        {file: "no_header.feedme", wantErr: feedme.ErrNoHeaders},
		"Error when there is no sky":           {file: "no_sky.feedme", wantErr: feedme.ErrNoSky},
		"Error when there are several skies":   {file: "two_skies.feedme", wantErr: feedme.ErrMultipleSky},
		"Error when no sersic template":        {file: "no_sersic.feedme", reqs: []feedme.Request{{Type: "psf"}}, wantErr: feedme.ErrNoSersicTemplate},
		"Error when template has no magnitude": {file: "bad_template.feedme", reqs: []feedme.Request{{Type: "psf"}}, wantErr: feedme.ErrTemplateUnparseable},
		"Error on unknown request type":        {file: "galfit.feedme", reqs: []feedme.Request{{Type: "moffat"}}, wantErr: feedme.ErrUnknownRequest},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := feedme.AddComponents(readFixture(t, tc.file), tc.reqs)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr, "AddComponents should return the expected error")
				require.ErrorIs(t, err, feedme.ErrStructural, "AddComponents errors should be structural")
				return
			}
			require.NoError(t, err, "AddComponents should not return an error")

			want := testutils.LoadWithUpdateFromGolden(t, got)
			require.Empty(t, cmp.Diff(want, got), "AddComponents output should match the golden file")
		})
	}
}

func TestAddComponentsSkyErrorsAreDistinct(t *testing.T) {
	t.Parallel()

	_, errNone := feedme.AddComponents(readFixture(t, "no_sky.feedme"), nil)
	_, errMany := feedme.AddComponents(readFixture(t, "two_skies.feedme"), nil)

	require.NotErrorIs(t, errNone, feedme.ErrMultipleSky, "A missing sky should not be reported as several")
	require.NotErrorIs(t, errMany, feedme.ErrNoSky, "Several skies should not be reported as missing")
	require.ErrorContains(t, errMany, "found 2", "The error should report how many skies were found")
}

func TestAddComponentsResult(t *testing.T) {
	t.Parallel()

	got, err := feedme.AddComponents(readFixture(t, "galfit.feedme"), []feedme.Request{{Type: "psf"}})
	require.NoError(t, err, "AddComponents should not return an error")

	doc, err := feedme.Split(got)
	require.NoError(t, err, "Split should parse the edited document")

	var types []string
	for _, b := range doc.Blocks {
		types = append(types, b.Type)
	}
	require.Equal(t, []string{"sersic", "expdisk", "psf", "sky"}, types, "The psf should be inserted just before the sky")

	psf := doc.Blocks[2].Text
	require.Contains(t, psf, "1) 48.50000  51.25000  1  1", "The psf should sit at the first sersic position")
	require.Contains(t, psf, "3) 17.7000  1", "The psf should be 1.5 magnitudes fainter than the first sersic")
}

func TestAddComponentsDefaultDeltaMag(t *testing.T) {
	t.Parallel()

	got, err := feedme.AddComponents(readFixture(t, "sky_last.feedme"),
		[]feedme.Request{{Type: "psf"}, {Type: "psf", DeltaMag: ptr(1)}},
		feedme.WithDefaultDeltaMag(3))
	require.NoError(t, err, "AddComponents should not return an error")

	require.Contains(t, got, "3) 18.5000  1   #  Integrated magnitude (fainter by 3)", "The default offset should apply to plain psf requests")
	require.Contains(t, got, "3) 16.5000  1   #  Integrated magnitude (fainter by 1)", "An explicit offset should win over the default")
}

func TestParseControl(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		text string
		want feedme.Control
	}{
		"Full control block": {
			text: readFixture(t, "galfit.feedme"),
			want: feedme.Control{Input: "gal.fits", Output: "imgblock.fits", PSF: "psf.fits"},
		},
		"Without comments": {
			text: "A) in.fits\nB) out.fits\nC) sigma.fits\nF) mask.fits\nG) cons.txt\n",
			want: feedme.Control{Input: "in.fits", Output: "out.fits", Sigma: "sigma.fits", Mask: "mask.fits", Constraint: "cons.txt"},
		},
		"Empty and none values are absent": {
			text: "A)   # nothing\nB) NONE # out\nD) none\n",
			want: feedme.Control{},
		},
		"Component lines are ignored": {
			text: "B) out.fits\n# Object number: 1\n B) other.fits\n",
			want: feedme.Control{Output: "out.fits"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := feedme.ParseControl(tc.text)
			require.Equal(t, tc.want, got, "ParseControl should extract the image parameters")
		})
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	abs, err := filepath.Abs("out.fits")
	require.NoError(t, err, "Setup: Abs should not return an error")

	require.Equal(t, filepath.Join("run", "out.fits"), feedme.Resolve(filepath.Join("run", "galfit.feedme"), "out.fits"), "Relative paths should be resolved against the feedme directory")
	require.Equal(t, abs, feedme.Resolve(filepath.Join("run", "galfit.feedme"), abs), "Absolute paths should be kept")
	require.Empty(t, feedme.Resolve("galfit.feedme", ""), "Empty paths should stay empty")
}

func readFixture(t *testing.T, name string) string {
	t.Helper()

	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "Setup: could not read fixture %s", name)
	return string(b)
}

func ptr(v float64) *float64 { return &v }
