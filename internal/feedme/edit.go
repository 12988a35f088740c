package feedme

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/galaxy-morphology/galfitkit/internal/numeric"
)

// DefaultDeltaMag is how much fainter than the template sersic a derived psf is.
const DefaultDeltaMag = 1.5

const (
	// TypeSersic requests a copy of the first sersic block.
	TypeSersic = "sersic"
	// TypePSF requests a point source derived from the first sersic block.
	TypePSF = "psf"
)

// Request asks for one component to be inserted.
type Request struct {
	Type string `mapstructure:"type" json:"type" yaml:"type" toml:"type"`
	// DeltaMag overrides the magnitude offset of a psf.
	DeltaMag *float64 `mapstructure:"delta_mag" json:"delta_mag,omitempty" yaml:"delta_mag,omitempty" toml:"delta_mag,omitempty"`
}

type options struct {
	deltaMag float64
	log      *slog.Logger
}

// Option configures AddComponents.
type Option func(*options)

// WithDefaultDeltaMag sets the magnitude offset of psf requests not carrying one.
func WithDefaultDeltaMag(d float64) Option {
	return func(o *options) {
		o.deltaMag = d
	}
}

// WithLogger sets the logger used while editing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

const num = `([+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`

var (
	positionLine  = regexp.MustCompile(`(?m)^[ \t]*1\)[ \t]*` + num + `[ \t]+` + num)
	magnitudeLine = regexp.MustCompile(`(?m)^[ \t]*3\)[ \t]*` + num)
)

// AddComponents inserts the requested components into the feedme text.
//
// The document must hold exactly one sky block, which is moved last. New blocks are placed
// just before it, in request order, and every header is renumbered from 1. Sersic requests copy
// the first sersic block; psf requests derive a point source at its position.
func AddComponents(text string, reqs []Request, args ...Option) (string, error) {
	opts := options{deltaMag: DefaultDeltaMag, log: slog.Default()}
	for _, opt := range args {
		opt(&opts)
	}

	doc, err := Split(text)
	if err != nil {
		return "", err
	}

	sky := doc.indexes("sky")
	switch len(sky) {
	case 0:
		return "", ErrNoSky
	case 1:
	default:
		return "", fmt.Errorf("%w (found %d)", ErrMultipleSky, len(sky))
	}

	skyBlock := doc.Blocks[sky[0]]
	var blocks []Block
	var floating []bool
	for i, b := range doc.Blocks {
		if i == sky[0] {
			continue
		}
		blocks = append(blocks, b)
		floating = append(floating, i == len(doc.Blocks)-1)
	}

	if len(reqs) > 0 {
		sersic := doc.indexes(TypeSersic)
		if len(sersic) == 0 {
			return "", ErrNoSersicTemplate
		}
		template := doc.Blocks[sersic[0]]

		for i, r := range reqs {
			b, err := newComponent(template, r, opts.deltaMag)
			if err != nil {
				return "", fmt.Errorf("request %d: %w", i, err)
			}
			opts.log.Debug("Inserting component", "type", b.Type, "request", i)
			blocks = append(blocks, b)
			floating = append(floating, true)
		}
	}

	// Blocks that were last in the source or are new have no separator of their own:
	// they take the one of the block they follow.
	sep := skyBlock.Trailer
	for i := range blocks {
		if floating[i] {
			blocks[i].Trailer = sep
		}
		sep = blocks[i].Trailer
	}
	skyBlock.Trailer = ""
	doc.Blocks = append(blocks, skyBlock)

	return doc.String(), nil
}

func newComponent(template Block, r Request, defaultDelta float64) (Block, error) {
	switch normalizeType(r.Type) {
	case TypeSersic:
		return NewBlock(template.Text), nil
	case TypePSF:
		delta := defaultDelta
		if r.DeltaMag != nil {
			delta = *r.DeltaMag
		}
		return psfFrom(template, delta)
	default:
		return Block{}, fmt.Errorf("%w: %q, use %q or %q", ErrUnknownRequest, r.Type, TypeSersic, TypePSF)
	}
}

// psfFrom derives a point source at the position of template, delta magnitudes fainter.
func psfFrom(template Block, delta float64) (Block, error) {
	pos := positionLine.FindStringSubmatch(template.Text)
	if pos == nil {
		return Block{}, fmt.Errorf("%w: no '1) x y' line", ErrTemplateUnparseable)
	}
	mag := magnitudeLine.FindStringSubmatch(template.Text)
	if mag == nil {
		return Block{}, fmt.Errorf("%w: no '3) mag' line", ErrTemplateUnparseable)
	}

	x, okX := numeric.SafeFloat(pos[1])
	y, okY := numeric.SafeFloat(pos[2])
	m, okM := numeric.SafeFloat(mag[1])
	if !okX || !okY || !okM {
		return Block{}, fmt.Errorf("%w: invalid position or magnitude", ErrTemplateUnparseable)
	}

	var sb strings.Builder
	sb.WriteString("0) psf                       #  Component type\n")
	fmt.Fprintf(&sb, "1) %.5f  %.5f  1  1     #  Position x, y\n", x, y)
	fmt.Fprintf(&sb, "3) %.4f  1   #  Integrated magnitude (fainter by %s)\n", m+delta, strconv.FormatFloat(delta, 'f', -1, 64))
	sb.WriteString("Z) 0                          #  Skip? (yes=1, no=0)\n")
	return NewBlock(sb.String()), nil
}

func normalizeType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
