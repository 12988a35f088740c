// Package fitlog parses the fit.log file GALFIT appends to after each run.
//
// Runs are separated by dashed lines. Each run lists its components on pairs of lines,
// values then uncertainties, followed by the goodness of fit:
//
//	sersic    : (  199.86,   200.61)   26.25      2.79    0.50    0.30     5.26
//	            (    0.12,     0.20)    0.06      0.31    0.48    0.09     5.78
//	Chi^2 = 1593.91249,  ndof = 8175
//	Chi^2/nu = 0.195
package fitlog

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/galaxy-morphology/galfitkit/internal/fileutils"
	"github.com/galaxy-morphology/galfitkit/internal/fit"
	"github.com/galaxy-morphology/galfitkit/internal/numeric"
	"github.com/ubuntu/decorate"
)

// Run is one fitting run recorded in a log.
type Run struct {
	// InitFile is the configuration file named on the "Init. par. file" line.
	InitFile string
	// Text is the raw text of the run, without the surrounding separators and blank lines.
	Text   string
	Result fit.Result
}

// Log is a parsed fit log, runs in file order.
type Log struct {
	Runs []Run

	log *slog.Logger
}

type options struct {
	log *slog.Logger
}

// Option configures the parser.
type Option func(*options)

// WithLogger sets the logger reporting values that could not be read.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// Parse reads a fit log. Malformed lines are skipped; only read errors are returned.
func Parse(r io.Reader, args ...Option) (*Log, error) {
	opts := options{log: slog.Default()}
	for _, opt := range args {
		opt(&opts)
	}

	toks, err := lex(r)
	if err != nil {
		return nil, err
	}

	l := &Log{log: opts.log}
	var block []token
	flush := func() {
		if run, ok := parseRun(block, opts.log); ok {
			l.Runs = append(l.Runs, run)
		}
		block = nil
	}
	for _, t := range toks {
		if t.kind == tokenSeparator {
			flush()
			continue
		}
		block = append(block, t)
	}
	flush()

	return l, nil
}

// Load parses the fit log at path. A missing file is an empty log.
func Load(path string, args ...Option) (l *Log, err error) {
	defer decorate.OnError(&err, "could not parse fit log %s", path)

	text, err := fileutils.ReadText(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Log{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(strings.NewReader(text), args...)
}

// Latest returns the last run listing components, or the last run if none does.
// Falling back to an earlier run than the last one is logged as a warning.
func (l *Log) Latest() (Run, bool) {
	if len(l.Runs) == 0 {
		return Run{}, false
	}
	last := len(l.Runs) - 1
	for i := last; i >= 0; i-- {
		if len(l.Runs[i].Result.Components) == 0 {
			continue
		}
		if i != last {
			l.logger().Warn("Last run of the fit log lists no components, using an earlier run",
				"run", i+1, "runs", len(l.Runs), "init_file", l.Runs[i].InitFile, "last_init_file", l.Runs[last].InitFile)
		}
		return l.Runs[i], true
	}
	return l.Runs[last], true
}

func (l *Log) logger() *slog.Logger {
	if l.log == nil {
		return slog.Default()
	}
	return l.log
}

// ForConfig returns the last run started from configPath.
// Runs are keyed by their init file as logged and by its base name; configPath is tried
// in its absolute form, as given and as a base name, in that order.
func (l *Log) ForConfig(configPath string) (Run, bool) {
	byName := make(map[string]Run)
	for _, r := range l.Runs {
		if r.InitFile != "" {
			byName[r.InitFile] = r
			byName[filepath.Base(r.InitFile)] = r
		}
	}

	var candidates []string
	if abs, err := filepath.Abs(configPath); err == nil {
		candidates = append(candidates, abs)
	}
	candidates = append(candidates, configPath, filepath.Base(configPath))
	for _, c := range candidates {
		if r, ok := byName[c]; ok {
			return r, true
		}
	}
	return Run{}, false
}

// ParseFile returns the result of the latest run of the fit log at path.
// A missing or unreadable log gives an empty result, the latter with its ParseError set.
func ParseFile(path string, args ...Option) fit.Result {
	l, err := Load(path, args...)
	if err != nil {
		return fit.Result{ParseError: err.Error()}
	}
	run, _ := l.Latest()
	return run.Result
}

// ParseFileFor returns the result of the run of the fit log at path started from configPath.
func ParseFileFor(path, configPath string, args ...Option) (fit.Result, bool) {
	l, err := Load(path, args...)
	if err != nil {
		return fit.Result{ParseError: err.Error()}, false
	}
	run, ok := l.ForConfig(configPath)
	return run.Result, ok
}

// RunText returns the raw text of the run of the fit log at path started from configPath.
// It returns false when the log does not exist or has no such run.
func RunText(path, configPath string, args ...Option) (string, bool) {
	l, err := Load(path, args...)
	if err != nil {
		return "", false
	}
	run, ok := l.ForConfig(configPath)
	return run.Text, ok
}

const num = `([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d*)?)`

var (
	chi2Pattern   = regexp.MustCompile(`Chi\^2\s*=\s*` + num)
	ndofPattern   = regexp.MustCompile(`ndof\s*=\s*(\d+)`)
	chi2NuPattern = regexp.MustCompile(`Chi\^2/nu\s*=\s*` + num)
)

func parseRun(toks []token, log *slog.Logger) (Run, bool) {
	var run Run
	var lines []string
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		lines = append(lines, t.text)

		switch t.kind {
		case tokenComponent:
			var unc *token
			if i+1 < len(toks) && toks[i+1].kind == tokenUncertainty {
				i++
				unc = &toks[i]
				lines = append(lines, unc.text)
			}
			run.Result.Components = append(run.Result.Components, newComponent(t, unc, log))
			continue
		case tokenInitFile:
			if run.InitFile == "" {
				run.InitFile = t.name
			}
		}
		scanStatistics(t, &run.Result.Statistics, log)
	}

	run.Text = strings.Trim(strings.Join(lines, "\n"), "\n")
	if strings.TrimSpace(run.Text) == "" {
		return Run{}, false
	}
	run.Result.InitFile = run.InitFile
	return run, true
}

// newComponent names the values of a component line after the kind schema.
func newComponent(t token, unc *token, log *slog.Logger) fit.Component {
	c := fit.NewComponent(t.name)
	names := fit.ParamNames(c.Kind)

	for pos, f := range t.fields {
		if pos >= len(names) {
			log.Debug("Ignoring extra component value", "line", t.line, "component", c.Type, "value", f.text)
			break
		}
		if names[pos] == fit.Unused || f.missing {
			continue
		}
		v, ok := numeric.SafeFloat(f.text)
		if !ok {
			log.Debug("Skipping unreadable component value", "line", t.line, "parameter", names[pos], "value", f.text)
			continue
		}
		c.Set(names[pos], fit.ParameterValue{Value: v, Fixed: f.fixed})
	}

	if unc == nil {
		return c
	}
	for pos, f := range unc.fields {
		if pos >= len(names) {
			break
		}
		pv, ok := c.Get(names[pos])
		if !ok || f.missing {
			continue
		}
		if f.fixed {
			pv.Fixed, pv.Uncertainty = true, nil
			c.Set(names[pos], pv)
			continue
		}
		if pv.Fixed {
			continue
		}
		u, ok := numeric.SafeFloat(f.text)
		if !ok {
			log.Debug("Skipping unreadable uncertainty", "line", unc.line, "parameter", names[pos], "value", f.text)
			continue
		}
		pv.Uncertainty = &u
		c.Set(names[pos], pv)
	}
	return c
}

func scanStatistics(t token, s *fit.Statistics, log *slog.Logger) {
	if m := chi2Pattern.FindStringSubmatch(t.text); m != nil {
		if v, ok := numeric.SafeFloat(m[1]); ok {
			s.Chi2 = &v
		} else {
			log.Debug("Skipping unreadable Chi^2", "line", t.line, "value", m[1])
		}
	}
	if m := ndofPattern.FindStringSubmatch(t.text); m != nil {
		if v, ok := numeric.SafeInt(m[1]); ok {
			s.NDOF = &v
		}
	}
	if m := chi2NuPattern.FindStringSubmatch(t.text); m != nil {
		if v, ok := numeric.SafeFloat(m[1]); ok {
			s.Chi2Nu = &v
		} else {
			log.Debug("Skipping unreadable Chi^2/nu", "line", t.line, "value", m[1])
		}
	}
}

// LogPath returns the fit.log file GALFIT writes next to outputPath.
func LogPath(outputPath string) string {
	return filepath.Join(filepath.Dir(outputPath), "fit.log")
}
