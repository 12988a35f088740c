package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/galaxy-morphology/galfitkit/internal/fit"
	"github.com/galaxy-morphology/galfitkit/internal/fitlog"
	"github.com/galaxy-morphology/galfitkit/internal/fitsheader"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func installResultsCmd(app *App) {
	var (
		format      string
		fromCatalog bool
	)

	cmd := &cobra.Command{
		Use:   "results PATH",
		Short: "Print the parsed fit result of an output image or a fit log",
		Long: `Print the parsed fit result of PATH as YAML or JSON.

With --source auto, PATH is read as an output image or a header dump first, and as a fit log
when it holds no model record. With --catalog, the last result stored for the output image PATH is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.checkSource(sourceAuto, sourceHeader, sourceLog); err != nil {
				return err
			}
			if format != "yaml" && format != "json" {
				app.cmd.SilenceUsage = false
				return fmt.Errorf("invalid format %q, expected yaml or json", format)
			}

			var (
				r   fit.Result
				err error
			)
			if fromCatalog {
				r, err = app.catalogResult(cmd, args[0])
			} else {
				r, err = app.fileResult(args[0])
			}
			if err != nil {
				return err
			}
			return printResult(cmd, r, format)
		},
	}
	cmd.Flags().String("source", sourceAuto, "how to read PATH: auto, header or log")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	cmd.Flags().BoolVar(&fromCatalog, "catalog", false, "print the last result stored in the catalog for PATH")

	app.cmd.AddCommand(cmd)
}

func (a App) fileResult(path string) (fit.Result, error) {
	switch a.config.Source {
	case sourceHeader:
		return fitsheader.ParseFile(path)
	case sourceLog:
		return fitlog.ParseFile(path), nil
	}

	r, err := fitsheader.ParseFile(path)
	if err == nil {
		return r, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fit.Result{}, err
	}
	slog.Debug("Not an output image, reading as a fit log", "path", path, "reason", err)
	return fitlog.ParseFile(path), nil
}

func (a App) catalogResult(cmd *cobra.Command, outputFile string) (fit.Result, error) {
	db, err := a.connect(cmd.Context())
	if err != nil {
		return fit.Result{}, err
	}
	defer closeCatalog(db)

	e, err := db.Latest(cmd.Context(), catalogKey(outputFile))
	if err != nil {
		return fit.Result{}, err
	}
	slog.Info("Read fit result from catalog", "id", e.ID, "stored", e.EntryTime, "source", e.Source)
	return e.Result, nil
}

func printResult(cmd *cobra.Command, r fit.Result, format string) error {
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
