// Package feedme reads and edits GALFIT configuration files ("feedme" files).
//
// A feedme document is an unparsed prefix, holding the control parameters, followed by
// component blocks each starting with a "# Object number: N" or "# Component number: N" line.
package feedme

import (
	"errors"
	"fmt"
)

// ErrStructural is the root of every error making a document unsuitable for editing.
var ErrStructural = errors.New("invalid feedme document")

var (
	// ErrNoHeaders is returned when the text holds no component header line.
	ErrNoHeaders = fmt.Errorf("%w: no '# Object/Component number:' header found", ErrStructural)
	// ErrNoSky is returned when no sky component exists.
	ErrNoSky = fmt.Errorf("%w: no sky component found, exactly one is required", ErrStructural)
	// ErrMultipleSky is returned when more than one sky component exists.
	ErrMultipleSky = fmt.Errorf("%w: several sky components found, exactly one is required", ErrStructural)
	// ErrNoSersicTemplate is returned when components must be derived from a sersic block and none exists.
	ErrNoSersicTemplate = fmt.Errorf("%w: no sersic component found (needed as template)", ErrStructural)
	// ErrTemplateUnparseable is returned when the position or magnitude of the template sersic cannot be read.
	ErrTemplateUnparseable = fmt.Errorf("%w: cannot parse template sersic", ErrStructural)
	// ErrUnknownRequest is returned for insert requests that are neither sersic nor psf.
	ErrUnknownRequest = fmt.Errorf("%w: unknown insert request", ErrStructural)
)
