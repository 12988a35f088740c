package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/galaxy-morphology/galfitkit/internal/catalog"
	"github.com/galaxy-morphology/galfitkit/internal/feedme"
	"github.com/galaxy-morphology/galfitkit/internal/fileutils"
	"github.com/galaxy-morphology/galfitkit/internal/fitlog"
	"github.com/galaxy-morphology/galfitkit/internal/metadata"
	"github.com/galaxy-morphology/galfitkit/internal/summary"
	"github.com/spf13/cobra"
)

// terminalWidth is the word wrap width of --print.
const terminalWidth = 100

type summarizeOptions struct {
	feedme    string
	logPath   string
	metadata  string
	stdoutLog string
	output    string
	print     bool
	store     bool
}

func installSummarizeCmd(app *App) {
	var opts summarizeOptions

	cmd := &cobra.Command{
		Use:   "summarize [OUTPUT.fits]",
		Short: "Write the Markdown summary of a fit",
		Long: `Write the Markdown summary of a GALFIT fit next to its output image, as <base>_summary.md.

The output image is given as argument or read from the B) line of the --feedme configuration.
With --source auto, the fit result is read from the output image headers, or from the fit log
when the image holds no model record. The fit log defaults to fit.log next to the output image.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.checkSource(sourceAuto, sourceHeader, sourceLog); err != nil {
				return err
			}

			var outputFile, configText string
			if len(args) == 1 {
				outputFile = args[0]
			}
			if opts.feedme != "" {
				text, err := fileutils.ReadText(opts.feedme)
				if err != nil {
					return err
				}
				configText = text
				if outputFile == "" {
					outputFile = feedme.Resolve(opts.feedme, feedme.ParseControl(text).Output)
				}
			}
			if outputFile == "" {
				app.cmd.SilenceUsage = false
				return errors.New("no output image: pass OUTPUT.fits or a --feedme configuration naming one")
			}

			return app.summarize(cmd, outputFile, configText, opts)
		},
	}
	cmd.Flags().StringVar(&opts.feedme, "feedme", "", "configuration the fit was started from")
	cmd.Flags().String("source", sourceAuto, "where to read the fit result from: auto, header or log")
	cmd.Flags().StringVar(&opts.logPath, "log", "", "fit log to read (default: fit.log next to the output image)")
	cmd.Flags().StringVar(&opts.metadata, "metadata", "", "INI file overriding the observation metadata")
	cmd.Flags().StringVar(&opts.stdoutLog, "stdout-log", "", "captured output of the fitting program, for the iteration count")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "summary file to write (default: <base>_summary.md next to the output image)")
	cmd.Flags().BoolVar(&opts.print, "print", false, "render the summary on the terminal")
	cmd.Flags().BoolVar(&opts.store, "catalog", false, "store the fit result in the catalog database")

	for _, name := range []string{"feedme", "log", "metadata", "stdout-log", "output"} {
		if err := cmd.MarkFlagFilename(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as filename: %v", name, err))
		}
	}
	app.cmd.AddCommand(cmd)
}

func (a App) summarize(cmd *cobra.Command, outputFile, configText string, opts summarizeOptions) error {
	logPath := opts.logPath
	if logPath == "" {
		logPath = fitlog.LogPath(outputFile)
	}

	res, source, err := a.outputResult(outputFile, logPath, opts.feedme)
	if err != nil {
		return err
	}
	slog.Info("Read fit result", "output", outputFile, "source", source, "components", len(res.Components))

	path := opts.output
	if path == "" {
		path = summary.Path(outputFile)
	}

	in := summary.Input{OutputFile: outputFile, Result: res, ConfigText: configText}
	if in.Metadata, err = observation(outputFile, opts.metadata); err != nil {
		slog.Warn("Could not load observation metadata, keeping the output image values", "path", opts.metadata, "error", err)
	}
	if opts.feedme != "" {
		if text, ok := fitlog.RunText(logPath, opts.feedme); ok {
			in.RunLog = text
		}
	}
	if opts.stdoutLog != "" {
		text, err := fileutils.ReadText(opts.stdoutLog)
		if err != nil {
			slog.Warn("Could not read captured output, leaving out the iteration count", "path", opts.stdoutLog, "error", err)
		} else {
			in.Iterations = fitlog.ParseIterations(text)
		}
	}

	if err := summary.WriteReport(path, in); err != nil {
		return err
	}

	if opts.store {
		if err := a.store(cmd.Context(), catalog.Entry{
			OutputFile: catalogKey(outputFile),
			Source:     source,
			Result:     res,
			Metadata:   in.Metadata,
		}); err != nil {
			return err
		}
	}

	if !opts.print {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	}
	md, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := summary.Terminal(string(md), terminalWidth)
	if err != nil {
		return fmt.Errorf("could not render summary: %v", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// observation reads the observation metadata of the output image, overridden by the INI file at iniPath if any.
func observation(outputFile, iniPath string) (metadata.Observation, error) {
	obs, err := metadata.FromFile(outputFile)
	if err != nil {
		slog.Debug("No observation metadata in output image", "path", outputFile, "error", err)
	}
	if iniPath == "" {
		return obs, nil
	}
	override, err := metadata.LoadINI(iniPath)
	if err != nil {
		return obs, err
	}
	return metadata.Merge(obs, override), nil
}

func (a App) store(ctx context.Context, e catalog.Entry) error {
	db, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer closeCatalog(db)

	id, err := db.Insert(ctx, e)
	if err != nil {
		return err
	}
	slog.Info("Fit result stored in catalog", "id", id, "output", e.OutputFile)
	return nil
}
