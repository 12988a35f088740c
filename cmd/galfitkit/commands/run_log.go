package commands

import (
	"fmt"

	"github.com/galaxy-morphology/galfitkit/internal/fitlog"
	"github.com/spf13/cobra"
)

func installRunLogCmd(app *App) {
	cmd := &cobra.Command{
		Use:   "run-log FIT.LOG CONFIG",
		Short: "Print the fit log block of a configuration's run",
		Long: `Print the raw block of FIT.LOG written by the last run started from CONFIG.
Runs are matched on the base name of their initial parameter file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := fitlog.Load(args[0])
			if err != nil {
				return err
			}
			run, ok := l.ForConfig(args[1])
			if !ok {
				return fmt.Errorf("no run of %s found in %s", args[1], args[0])
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), run.Text)
			return err
		},
	}
	app.cmd.AddCommand(cmd)
}
