package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/galaxy-morphology/galfitkit/internal/catalog"
	"github.com/spf13/cobra"
)

func installMigrateCmd(app *App) {
	migrateCmd := &cobra.Command{
		Use:   "migrate MIGRATIONS_DIR",
		Short: "Apply the catalog database migrations",
		Long:  `Apply the migration scripts of MIGRATIONS_DIR to the catalog database, creating the tables fit results are stored in.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("migrate command accepts exactly one argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app.cmd.SilenceUsage = false

			fileInfo, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("the provided path to migration scripts is not valid: %v", err)
			}
			if !fileInfo.IsDir() {
				return fmt.Errorf("the provided path to migration scripts should be a directory, not a file")
			}

			app.cmd.SilenceUsage = true

			slog.Info("Running migrate command", "dir", args[0])
			return catalog.Migrate(app.config.Catalog, args[0])
		},
	}
	app.cmd.AddCommand(migrateCmd)
}
