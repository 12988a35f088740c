package commands

import (
	"fmt"
	"log/slog"

	"github.com/galaxy-morphology/galfitkit/internal/feedme"
	"github.com/galaxy-morphology/galfitkit/internal/fileutils"
	"github.com/spf13/cobra"
)

func installAddComponentsCmd(app *App) {
	var requestsFile, output string

	cmd := &cobra.Command{
		Use:   "add-components FEEDME [REQUEST...]",
		Short: "Add sersic or psf components to a feedme configuration",
		Long: `Add components to a GALFIT feedme configuration and print the edited document.

Each REQUEST is "sersic", "psf" or "psf:<delta_mag>". A sersic request copies the first
sersic component. A psf request is placed at the first sersic position with a magnitude
fainter by delta_mag. Requests read from --requests are applied before the command line ones.
The sky component is always moved last and components are renumbered.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reqs []feedme.Request
			if requestsFile != "" {
				r, err := feedme.LoadRequests(requestsFile)
				if err != nil {
					return err
				}
				reqs = append(reqs, r...)
			}
			for _, token := range args[1:] {
				r, err := feedme.ParseRequest(token)
				if err != nil {
					app.cmd.SilenceUsage = false
					return err
				}
				reqs = append(reqs, r)
			}

			return app.addComponents(cmd, args[0], reqs, output)
		},
	}
	cmd.Flags().StringVar(&requestsFile, "requests", "", "YAML, TOML or JSON file listing the components to add")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the edited configuration to this file instead of stdout")
	cmd.Flags().Float64("delta-mag", feedme.DefaultDeltaMag, "magnitude offset of psf requests not setting one")

	if err := cmd.MarkFlagFilename("requests", "yaml", "yml", "toml", "json"); err != nil {
		panic(fmt.Sprintf("failed to mark requests flag as filename: %v", err))
	}
	app.cmd.AddCommand(cmd)
}

func (a App) addComponents(cmd *cobra.Command, path string, reqs []feedme.Request, output string) error {
	text, err := fileutils.ReadText(path)
	if err != nil {
		return err
	}

	edited, err := feedme.AddComponents(text, reqs, feedme.WithDefaultDeltaMag(a.config.DeltaMag))
	if err != nil {
		return fmt.Errorf("could not edit %s: %w", path, err)
	}

	if output == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), edited)
		return err
	}
	if err := fileutils.AtomicWrite(output, []byte(edited)); err != nil {
		return err
	}
	slog.Info("Configuration written", "path", output, "components_added", len(reqs))
	return nil
}
