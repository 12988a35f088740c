// Package summary renders fit results into Markdown reports.
package summary

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/galaxy-morphology/galfitkit/internal/fit"
	"github.com/galaxy-morphology/galfitkit/internal/fitlog"
	"github.com/galaxy-morphology/galfitkit/internal/metadata"
)

// Title is the first heading of every report.
const Title = "GALFIT Fitting Summary"

//go:embed summary.md.tmpl
var reportTemplate string

var report = template.Must(template.New("summary").Option("missingkey=error").Funcs(funcMap()).Parse(reportTemplate))

// Input is everything a report shows. Only Result is required.
type Input struct {
	// OutputFile is the fit output the report describes.
	OutputFile string
	Result     fit.Result
	Metadata   metadata.Observation
	// ConfigText is the configuration the fit was run with, inlined as is.
	ConfigText string
	// RunLog is the fit log block of the run.
	RunLog     string
	Iterations []fitlog.Iteration
}

var displayNames = map[string]string{
	"x":         "Position X",
	"y":         "Position Y",
	"magnitude": "Magnitude",
	"R_e":       "R_e (pix)",
	"R_s":       "R_s (pix)",
	"n":         "Sersic n",
	"b/a":       "Axis Ratio (b/a)",
	"PA":        "Position Angle (°)",
	"sky":       "Sky Background",
	"dsky/dx":   "dSky/dx",
	"dsky/dy":   "dSky/dy",
}

// DisplayName returns the table label of a parameter.
func DisplayName(name string) string {
	if n, ok := displayNames[name]; ok {
		return n
	}
	return name
}

func funcMap() template.FuncMap {
	m := sprig.TxtFuncMap()
	m["reportTitle"] = func() string { return Title }
	m["displayName"] = DisplayName
	m["decimal"] = decimal
	m["uncertainty"] = uncertainty
	return m
}

func decimal(v any) (string, error) {
	switch f := v.(type) {
	case float64:
		return fmt.Sprintf("%.5f", f), nil
	case *float64:
		if f == nil {
			return "", nil
		}
		return fmt.Sprintf("%.5f", *f), nil
	default:
		return "", fmt.Errorf("not a float: %T", v)
	}
}

func uncertainty(v fit.ParameterValue) string {
	if v.Uncertainty == nil {
		return "—"
	}
	return fmt.Sprintf("±%.5f", *v.Uncertainty)
}

// Render returns the Markdown report of in.
func Render(in Input) (string, error) {
	var sb strings.Builder
	if err := report.Execute(&sb, in); err != nil {
		return "", fmt.Errorf("could not render summary: %w", err)
	}
	return sb.String(), nil
}
