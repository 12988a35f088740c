package summary

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/galaxy-morphology/galfitkit/internal/constants"
	"github.com/galaxy-morphology/galfitkit/internal/fileutils"
	"github.com/ubuntu/decorate"
)

type options struct {
	render func(Input) (string, error)
	log    *slog.Logger
}

// Option configures WriteReport.
type Option func(*options)

// WithLogger sets the logger reporting rendering failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// Path returns the report path of a fit output file: <dir>/<base>_summary.md.
func Path(outputFile string) string {
	base := filepath.Base(outputFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(outputFile), base+constants.SummarySuffix)
}

// MinimalReport is the report written when rendering fails: the title and the error.
func MinimalReport(cause error) string {
	return fmt.Sprintf("# %s\n\n**Error:** %v\n\nCould not extract complete summary information.\n", Title, cause)
}

// WriteReport renders in and atomically writes it to path.
// When rendering fails, including by panicking, the minimal report is written instead
// and only a failure to write it is returned.
func WriteReport(path string, in Input, args ...Option) (err error) {
	defer decorate.OnError(&err, "could not write summary")

	opts := options{render: Render, log: slog.Default()}
	for _, opt := range args {
		opt(&opts)
	}

	md, rerr := safeRender(opts.render, in)
	if rerr != nil {
		opts.log.Warn("Could not render summary, writing a minimal report", "path", path, "error", rerr)
		md = MinimalReport(rerr)
	}

	if err := fileutils.AtomicWrite(path, []byte(md)); err != nil {
		return err
	}
	opts.log.Info("Summary written", "path", path)
	return nil
}

func safeRender(render func(Input) (string, error), in Input) (md string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while rendering: %v", r)
		}
	}()
	return render(in)
}
