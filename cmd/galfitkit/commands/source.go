package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/galaxy-morphology/galfitkit/internal/catalog"
	"github.com/galaxy-morphology/galfitkit/internal/fit"
	"github.com/galaxy-morphology/galfitkit/internal/fitlog"
	"github.com/galaxy-morphology/galfitkit/internal/fitsheader"
)

// outputResult reads the fit result of outputFile from the configured source and returns
// the source actually used. In auto mode, the fit log at logPath is read when the output
// file is missing or has no model record. When config is set, only its run of the fit log is considered.
func (a App) outputResult(outputFile, logPath, config string) (fit.Result, string, error) {
	switch a.config.Source {
	case sourceHeader:
		r, err := fitsheader.ParseFile(outputFile)
		return r, sourceHeader, err
	case sourceLog:
		return logResult(logPath, config), sourceLog, nil
	}

	r, err := fitsheader.ParseFile(outputFile)
	if err == nil {
		return r, sourceHeader, nil
	}
	if !errors.Is(err, fitsheader.ErrNoModelRecord) && !errors.Is(err, fs.ErrNotExist) {
		return fit.Result{}, "", err
	}
	slog.Info("No fit result in output headers, reading the fit log", "output", outputFile, "log", logPath, "reason", err)
	return logResult(logPath, config), sourceLog, nil
}

func logResult(logPath, config string) fit.Result {
	if config == "" {
		return fitlog.ParseFile(logPath)
	}
	r, ok := fitlog.ParseFileFor(logPath, config)
	if !ok && r.ParseError == "" {
		r.ParseError = fmt.Sprintf("no run of %s found in %s", filepath.Base(config), logPath)
	}
	return r
}

// connect opens the results catalog. The caller closes it.
func (a App) connect(ctx context.Context) (*catalog.Manager, error) {
	db, err := catalog.Connect(ctx, a.config.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog: %v", err)
	}
	return db, nil
}

func closeCatalog(db *catalog.Manager) {
	if err := db.Close(); err != nil {
		slog.Warn("Failed to close catalog", "error", err)
	}
}

// catalogKey is the output file name results are stored under.
func catalogKey(outputFile string) string {
	if abs, err := filepath.Abs(outputFile); err == nil {
		return abs
	}
	return outputFile
}
