package feedme

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Control holds the image file parameters of a feedme prefix. Empty fields were absent or "none".
type Control struct {
	Input      string // A)
	Output     string // B)
	Sigma      string // C)
	PSF        string // D)
	Mask       string // F)
	Constraint string // G)
}

var controlLine = regexp.MustCompile(`^\s*([A-G])\)[ \t]*([^#\r\n]*?)[ \t]*(?:#.*)?$`)

// ParseControl reads the control parameters of a feedme document.
// Only the prefix, before the first component header, is considered.
func ParseControl(text string) Control {
	prefix := text
	if doc, err := Split(text); err == nil {
		prefix = doc.Prefix
	}

	var c Control
	fields := map[string]*string{
		"A": &c.Input,
		"B": &c.Output,
		"C": &c.Sigma,
		"D": &c.PSF,
		"F": &c.Mask,
		"G": &c.Constraint,
	}
	for _, l := range scanLines(prefix) {
		m := controlLine.FindStringSubmatch(strings.TrimRight(l.text, "\r\n"))
		if m == nil {
			continue
		}
		f, ok := fields[m[1]]
		if !ok || *f != "" {
			continue
		}
		if v := strings.TrimSpace(m[2]); !strings.EqualFold(v, "none") {
			*f = v
		}
	}
	return c
}

// Resolve returns path relative to the directory of the feedme file at configPath,
// as GALFIT resolves it when run from that directory. Absolute and empty paths are returned as is.
func Resolve(configPath, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(configPath), path)
}
