package fitlog

import (
	"regexp"

	"github.com/galaxy-morphology/galfitkit/internal/numeric"
)

// Iteration is one optimization step printed by GALFIT on its standard output.
type Iteration struct {
	Number int     `json:"number" yaml:"number"`
	Chi2Nu float64 `json:"chi2_nu" yaml:"chi2_nu"`
}

var iterationPattern = regexp.MustCompile(`Iteration\s*:\s*(\d+)\s+Chi2nu:\s*` + num)

// ParseIterations extracts the optimization steps from the captured output of a GALFIT run.
func ParseIterations(output string) []Iteration {
	var its []Iteration
	for _, m := range iterationPattern.FindAllStringSubmatch(output, -1) {
		n, okN := numeric.SafeInt(m[1])
		v, okV := numeric.SafeFloat(m[2])
		if !okN || !okV {
			continue
		}
		its = append(its, Iteration{Number: n, Chi2Nu: v})
	}
	return its
}
