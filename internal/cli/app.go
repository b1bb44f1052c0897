// Package cli wires the cleaning engine to the deviceclean command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/deviceclean/internal/config"
	"github.com/JonMunkholm/deviceclean/internal/core"
	"github.com/JonMunkholm/deviceclean/internal/logging"
)

// App holds what every command needs: output streams and the loaded
// configuration.
type App struct {
	version string
	out     io.Writer
	errOut  io.Writer

	configFile string
	cfg        *config.Config
}

// Option customizes an App.
type Option func(*App)

// WithOutput redirects command output and diagnostics.
func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) {
		a.out = out
		a.errOut = errOut
	}
}

// New creates an App writing to stdout and stderr.
func New(version string, opts ...Option) *App {
	a := &App{version: version, out: os.Stdout, errOut: os.Stderr}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the configuration loaded for the running command.
func (a *App) Config() *config.Config { return a.cfg }

// Execute runs the command line given by args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "deviceclean",
		Short: "Validate and clean device inventory exports",
		Long: `deviceclean reads device inventory files (csv, tsv, xlsx), maps their
columns onto the device schema, reports invalid cells and applies
resolution plans to produce a clean table and a table of ignored rows.`,
		Version:           a.version,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default is ./"+config.DefaultFile+" if present)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")
	flags.Bool("geocode", false, "resolve unknown country names with the online geocoder")

	root.AddCommand(
		a.inspectCommand(),
		a.checkCommand(),
		a.cleanCommand(),
		a.sampleCommand(),
	)
	return root
}

// flagKeys binds persistent flags to configuration keys.
var flagKeys = map[string]string{
	"LOG_LEVEL":       "log-level",
	"LOG_FORMAT":      "log-format",
	"GEOCODE_ENABLED": "geocode",
}

// setup loads configuration, installs the logger and tags the context with
// a fresh run id before any command runs.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	v, err := config.Source(a.configFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	cfg, err := config.LoadFrom(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	slog.SetDefault(logging.New(a.errOut, cfg.Logging.Level, cfg.Logging.Format))

	ctx := core.ContextWithRunID(cmd.Context(), "")
	cmd.SetContext(ctx)
	logging.FromContext(ctx).Debug("configuration loaded",
		"command", cmd.Name(),
		"config_file", v.ConfigFileUsed(),
		"geocode", cfg.Geocode.Enabled,
	)
	return nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	for key, name := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// PrintError writes err for a person: the coded message first, then the
// technical detail.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "Error: %s\n", core.FormatUserError(err))
	fmt.Fprintf(w, "  detail: %v\n", err)
	if rows := core.UnknownRows(err); len(rows) > 0 {
		fmt.Fprintf(w, "  rows: %v\n", rows)
	}
}
