// Package commands implements the galfitkit command line.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/galaxy-morphology/galfitkit/internal/catalog"
	"github.com/galaxy-morphology/galfitkit/internal/cli"
	"github.com/galaxy-morphology/galfitkit/internal/constants"
	"github.com/galaxy-morphology/galfitkit/internal/feedme"
	"github.com/galaxy-morphology/galfitkit/internal/metrics"
	"github.com/galaxy-morphology/galfitkit/internal/numeric"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Result sources.
const (
	sourceAuto   = "auto"
	sourceHeader = "header"
	sourceLog    = "log"
)

// App represents the application.
type App struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	config appConfig

	// cancel stops a running watch command.
	cancel context.CancelFunc
	ready  chan struct{}
}

// appConfig holds the configuration for the application.
type appConfig struct {
	Verbosity int  `mapstructure:"verbose" yaml:"verbose,omitempty"`
	JSONLogs  bool `mapstructure:"json-logs" yaml:"json-logs,omitempty"`

	DeltaMag float64        `mapstructure:"deltamag" yaml:"deltamag,omitempty"`
	Source   string         `mapstructure:"source" yaml:"source,omitempty"`
	Catalog  catalog.Config `mapstructure:"catalog" yaml:"catalog,omitempty"`
	Metrics  metrics.Config `mapstructure:"metrics" yaml:"metrics,omitempty"`
}

// configFlags maps configuration keys to the subcommand flags overriding them.
// They are bound to the running subcommand only, as several share a name.
var configFlags = map[string]string{
	"deltamag":     "delta-mag",
	"source":       "source",
	"metrics.addr": "metrics-addr",
}

// New creates a new App instance with default values.
func New() (*App, error) {
	a := App{ready: make(chan struct{})}

	a.cmd = &cobra.Command{
		Use:   constants.CmdName + " COMMAND",
		Short: "GALFIT configuration editing and fit result reporting",
		Long: `Edit GALFIT feedme configurations, parse fit results from FITS headers or fit logs
and render them as Markdown summaries.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs) // Set verbosity before loading config
			if err := cli.InitViperConfig(constants.CmdName, a.cmd, a.viper); err != nil {
				return err
			}
			for key, name := range configFlags {
				if f := cmd.Flags().Lookup(name); f != nil {
					if err := a.viper.BindPFlag(key, f); err != nil {
						return err
					}
				}
			}
			if err := a.viper.Unmarshal(&a.config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
				numeric.FloatHook(),
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			))); err != nil {
				return fmt.Errorf("unable to strictly decode configuration into struct: %w", err)
			}
			slog.Debug("got app config", "source", a.config.Source, "deltamag", a.config.DeltaMag, "catalog_host", a.config.Catalog.Host)

			cli.SetSlog(a.config.Verbosity, a.config.JSONLogs) // Update logging after loading config if necessary
			return nil
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Usage()
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	installRootCmd(&a)
	cli.InstallConfigFlag(a.cmd)

	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}
	if err := bindDBFlags(a.cmd, a.viper); err != nil {
		return nil, err
	}
	a.viper.SetDefault("deltamag", feedme.DefaultDeltaMag)
	a.viper.SetDefault("source", sourceAuto)
	a.viper.SetDefault("metrics.read-timeout", 5*time.Second)
	a.viper.SetDefault("metrics.write-timeout", 10*time.Second)

	installAddComponentsCmd(&a)
	installSummarizeCmd(&a)
	installResultsCmd(&a)
	installRunLogCmd(&a)
	installWatchCmd(&a)
	installMigrateCmd(&a)
	a.installVersion()

	return &a, nil
}

func installRootCmd(app *App) {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	cmd.PersistentFlags().BoolVar(&app.config.JSONLogs, "json-logs", false, "enable JSON formatted logs")

	addDBFlags(cmd, &app.config.Catalog)
}

func addDBFlags(cmd *cobra.Command, config *catalog.Config) {
	cmd.PersistentFlags().StringVar(&config.Host, "db-host", "", "catalog database host")
	cmd.PersistentFlags().IntVarP(&config.Port, "db-port", "p", 5432, "catalog database port")
	cmd.PersistentFlags().StringVarP(&config.User, "db-user", "u", "", "catalog database user")
	cmd.PersistentFlags().StringVarP(&config.Password, "db-password", "P", "", "catalog database password")
	cmd.PersistentFlags().StringVarP(&config.DBName, "db-name", "n", "", "catalog database name")
	cmd.PersistentFlags().StringVarP(&config.SSLMode, "db-sslmode", "s", "", "catalog database SSL mode")
}

// bindDBFlags binds the database flags to the nested catalog configuration keys.
func bindDBFlags(cmd *cobra.Command, vip *viper.Viper) error {
	for key, name := range map[string]string{
		"catalog.host":     "db-host",
		"catalog.port":     "db-port",
		"catalog.user":     "db-user",
		"catalog.password": "db-password",
		"catalog.name":     "db-name",
		"catalog.sslmode":  "db-sslmode",
	} {
		if err := vip.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the command and associated process, returning an error if any.
func (a App) Run() error {
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// Quit stops a running watch command once it is ready.
func (a *App) Quit() {
	a.WaitReady()
	a.cancel()
}

// WaitReady waits for the watch command to be watching.
func (a *App) WaitReady() {
	<-a.ready
}

// RootCmd returns the root command.
func (a App) RootCmd() cobra.Command {
	return *a.cmd
}

// checkSource returns a usage error if source is not one of the allowed values.
func (a *App) checkSource(allowed ...string) error {
	for _, s := range allowed {
		if a.config.Source == s {
			return nil
		}
	}
	a.cmd.SilenceUsage = false
	return fmt.Errorf("invalid source %q, expected one of %v", a.config.Source, allowed)
}
