package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/galaxy-morphology/galfitkit/internal/catalog"
	"github.com/galaxy-morphology/galfitkit/internal/fitsheader"
	"github.com/galaxy-morphology/galfitkit/internal/metrics"
	"github.com/galaxy-morphology/galfitkit/internal/summary"
	"github.com/galaxy-morphology/galfitkit/internal/watch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	pattern  string
	settle   time.Duration
	metadata string
	store    bool
}

func installWatchCmd(app *App) {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Write the summary of each new output image of a directory",
		Long: `Watch DIR for new GALFIT output images and write <base>_summary.md next to each one
holding a model record. Files are handled once they have not changed for the settle delay.
Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.cmd.SilenceUsage = false
			fileInfo, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("the provided directory to watch is not valid: %v", err)
			}
			if !fileInfo.IsDir() {
				return fmt.Errorf("the provided path to watch should be a directory, not a file")
			}
			app.cmd.SilenceUsage = true

			return app.watch(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.pattern, "pattern", watch.DefaultPattern, "glob matched against the base name of changed files")
	cmd.Flags().DurationVar(&opts.settle, "settle", 500*time.Millisecond, "how long a file must stay unchanged before it is read")
	cmd.Flags().StringVar(&opts.metadata, "metadata", "", "INI file overriding the observation metadata of every summary")
	cmd.Flags().BoolVar(&opts.store, "catalog", false, "store each fit result in the catalog database")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this host:port (disabled if empty)")

	if err := cmd.MarkFlagFilename("metadata", "ini"); err != nil {
		panic(fmt.Sprintf("failed to mark metadata flag as filename: %v", err))
	}
	app.cmd.AddCommand(cmd)
}

func (a *App) watch(cmd *cobra.Command, dir string, opts watchOptions) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var collectors *metrics.WatchCollectors
	serverErrs := make(chan error, 1)
	if a.config.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		c, err := metrics.NewWatchCollectors(reg)
		if err != nil {
			return err
		}
		collectors = c

		srv := metrics.New(a.config.Metrics, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrs <- fmt.Errorf("metrics server failed: %v", err)
			}
		}()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			if err := srv.Shutdown(sctx); err != nil {
				slog.Warn("Failed to shut down metrics server", "error", err)
			}
		}()
		slog.Info("Serving watch metrics", "addr", a.config.Metrics.Addr)
	}

	w, err := watch.New(dir, func(ctx context.Context, path string) error {
		start := time.Now()
		err := a.summarizeImage(ctx, path, opts)
		if collectors != nil {
			collectors.Observe(outcome(err), time.Since(start))
		}
		return err
	}, watch.WithPattern(opts.pattern), watch.WithSettleDelay(opts.settle))
	if err != nil {
		a.cmd.SilenceUsage = false
		return err
	}

	handled, errs, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	a.cancel = cancel
	close(a.ready)

	for {
		select {
		case path, ok := <-handled:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), summary.Path(path)); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return err
		case err := <-serverErrs:
			return err
		}
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSummarized
	case errors.Is(err, watch.ErrSkip):
		return metrics.OutcomeSkipped
	default:
		return metrics.OutcomeFailed
	}
}

// summarizeImage writes the summary of the output image at path.
// Images without a model record are skipped.
func (a App) summarizeImage(ctx context.Context, path string, opts watchOptions) error {
	res, err := fitsheader.ParseFile(path)
	if errors.Is(err, fitsheader.ErrNoModelRecord) {
		return fmt.Errorf("%w: %v", watch.ErrSkip, err)
	}
	if err != nil {
		return err
	}

	obs, err := observation(path, opts.metadata)
	if err != nil {
		slog.Warn("Could not load observation metadata, keeping the output image values", "path", opts.metadata, "error", err)
	}
	if err := summary.WriteReport(summary.Path(path), summary.Input{OutputFile: path, Result: res, Metadata: obs}); err != nil {
		return err
	}

	if !opts.store {
		return nil
	}
	if err := a.store(ctx, catalog.Entry{
		OutputFile: catalogKey(path),
		Source:     sourceHeader,
		Result:     res,
		Metadata:   obs,
	}); err != nil {
		slog.Warn("Could not store fit result", "path", path, "error", err)
	}
	return nil
}
