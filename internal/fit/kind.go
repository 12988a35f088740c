// Package fit holds the result model shared by the fit log and FITS header parsers,
// and the parameter schema naming the values of each component kind.
package fit

import (
	"strings"
)

// Kind is the closed set of component kinds understood by the parsers.
type Kind int

const (
	// KindUnknown is any component type outside the known set.
	KindUnknown Kind = iota
	// KindSersic is a Sersic profile.
	KindSersic
	// KindExpDisk is an exponential disk.
	KindExpDisk
	// KindSky is the sky background.
	KindSky
	// KindPSF is a point source.
	KindPSF
)

var kindNames = map[Kind]string{
	KindUnknown: "unknown",
	KindSersic:  "sersic",
	KindExpDisk: "expdisk",
	KindSky:     "sky",
	KindPSF:     "psf",
}

// String returns the lowercase GALFIT name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// ParseKind maps a component type string to its kind, ignoring case and surrounding spaces.
func ParseKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if k != KindUnknown && name == s {
			return k
		}
	}
	return KindUnknown
}
