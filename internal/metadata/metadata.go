// Package metadata gathers the observation context rendered next to a fit result:
// object, instrument, exposure, image size and world coordinate system.
package metadata

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/galaxy-morphology/galfitkit/internal/fitsheader"
	"github.com/ubuntu/decorate"
	"gopkg.in/ini.v1"
)

// Observation describes the input image of a fit. Values are passed through as read.
type Observation struct {
	Object     string     `ini:"object" json:"object,omitempty" yaml:"object,omitempty"`
	Telescope  string     `ini:"telescope" json:"telescope,omitempty" yaml:"telescope,omitempty"`
	Instrument string     `ini:"instrument" json:"instrument,omitempty" yaml:"instrument,omitempty"`
	Filter     string     `ini:"filter" json:"filter,omitempty" yaml:"filter,omitempty"`
	ExpTime    string     `ini:"exptime" json:"exptime,omitempty" yaml:"exptime,omitempty"`
	DateObs    string     `ini:"date_obs" json:"date_obs,omitempty" yaml:"date_obs,omitempty"`
	ImageSize  *ImageSize `ini:"-" json:"image_size,omitempty" yaml:"image_size,omitempty"`
	WCS        WCS        `ini:"-" json:"wcs,omitzero" yaml:"wcs,omitempty"`
}

// ImageSize is the size of the input image in pixels.
type ImageSize struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// WCS holds the world coordinate system keys of the input image. Empty values are absent.
type WCS struct {
	CRPIX1 string `ini:"crpix1" json:"crpix1,omitempty" yaml:"crpix1,omitempty"`
	CRPIX2 string `ini:"crpix2" json:"crpix2,omitempty" yaml:"crpix2,omitempty"`
	CRVAL1 string `ini:"crval1" json:"crval1,omitempty" yaml:"crval1,omitempty"`
	CRVAL2 string `ini:"crval2" json:"crval2,omitempty" yaml:"crval2,omitempty"`
	CD1_1  string `ini:"cd1_1" json:"cd1_1,omitempty" yaml:"cd1_1,omitempty"`
	CD1_2  string `ini:"cd1_2" json:"cd1_2,omitempty" yaml:"cd1_2,omitempty"`
	CD2_1  string `ini:"cd2_1" json:"cd2_1,omitempty" yaml:"cd2_1,omitempty"`
	CD2_2  string `ini:"cd2_2" json:"cd2_2,omitempty" yaml:"cd2_2,omitempty"`
	CTYPE1 string `ini:"ctype1" json:"ctype1,omitempty" yaml:"ctype1,omitempty"`
	CTYPE2 string `ini:"ctype2" json:"ctype2,omitempty" yaml:"ctype2,omitempty"`
}

// IsZero reports whether no WCS key is set.
func (w WCS) IsZero() bool {
	return w == WCS{}
}

// FromHeaders extracts the observation from the input image copy of a GALFIT output block:
// the first header whose OBJECT names an image section ("gal.fits[1:100,1:100]").
func FromHeaders(hdrs []fitsheader.Header) (Observation, bool) {
	for _, h := range hdrs {
		obj, _ := h.Get("OBJECT")
		if !strings.Contains(obj, "[") {
			continue
		}

		get := func(key string) string {
			v, _ := h.Get(key)
			return v
		}
		o := Observation{
			Object:     obj,
			Telescope:  get("TELESCOP"),
			Instrument: get("INSTRUME"),
			Filter:     get("FILTER"),
			ExpTime:    get("EXPTIME"),
			DateObs:    get("DATE-OBS"),
			WCS: WCS{
				CRPIX1: get("CRPIX1"),
				CRPIX2: get("CRPIX2"),
				CRVAL1: get("CRVAL1"),
				CRVAL2: get("CRVAL2"),
				CD1_1:  get("CD1_1"),
				CD1_2:  get("CD1_2"),
				CD2_1:  get("CD2_1"),
				CD2_2:  get("CD2_2"),
				CTYPE1: get("CTYPE1"),
				CTYPE2: get("CTYPE2"),
			},
		}

		switch shape := h.Shape(); len(shape) {
		case 0:
		case 1:
			o.ImageSize = &ImageSize{Width: 1, Height: shape[0]}
		default:
			o.ImageSize = &ImageSize{Width: shape[0], Height: shape[1]}
		}
		return o, true
	}
	return Observation{}, false
}

// FromFile reads the observation from the headers of the FITS file at path.
// A file without an input image header gives an empty observation.
func FromFile(path string) (o Observation, err error) {
	hdrs, err := fitsheader.ReadFile(path)
	if err != nil {
		return Observation{}, err
	}
	o, ok := FromHeaders(hdrs)
	if !ok {
		slog.Debug("No input image header found", "path", path)
	}
	return o, nil
}

// LoadINI reads an observation sidecar file made of an [observation] section,
// with optional width and height keys, and a [wcs] section.
// A missing file gives an empty observation.
func LoadINI(path string) (o Observation, err error) {
	defer decorate.OnError(&err, "could not load observation metadata from %s", path)

	cfg, err := ini.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Observation metadata file not found", "path", path)
		return Observation{}, nil
	}
	if err != nil {
		return Observation{}, err
	}

	sec := cfg.Section("observation")
	if err := sec.MapTo(&o); err != nil {
		return Observation{}, err
	}
	if err := cfg.Section("wcs").MapTo(&o.WCS); err != nil {
		return Observation{}, err
	}

	if sec.HasKey("width") || sec.HasKey("height") {
		w, err := sec.Key("width").Int()
		if err != nil {
			return Observation{}, err
		}
		h, err := sec.Key("height").Int()
		if err != nil {
			return Observation{}, err
		}
		o.ImageSize = &ImageSize{Width: w, Height: h}
	}

	return o, nil
}

// Merge returns base with every non empty value of override applied.
func Merge(base, override Observation) Observation {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&base.Object, override.Object)
	set(&base.Telescope, override.Telescope)
	set(&base.Instrument, override.Instrument)
	set(&base.Filter, override.Filter)
	set(&base.ExpTime, override.ExpTime)
	set(&base.DateObs, override.DateObs)
	if override.ImageSize != nil {
		s := *override.ImageSize
		base.ImageSize = &s
	}

	set(&base.WCS.CRPIX1, override.WCS.CRPIX1)
	set(&base.WCS.CRPIX2, override.WCS.CRPIX2)
	set(&base.WCS.CRVAL1, override.WCS.CRVAL1)
	set(&base.WCS.CRVAL2, override.WCS.CRVAL2)
	set(&base.WCS.CD1_1, override.WCS.CD1_1)
	set(&base.WCS.CD1_2, override.WCS.CD1_2)
	set(&base.WCS.CD2_1, override.WCS.CD2_1)
	set(&base.WCS.CD2_2, override.WCS.CD2_2)
	set(&base.WCS.CTYPE1, override.WCS.CTYPE1)
	set(&base.WCS.CTYPE2, override.WCS.CTYPE2)

	return base
}
