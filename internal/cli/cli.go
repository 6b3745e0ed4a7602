// Package cli is the datatable command line tool. Every command opens the
// configured store, runs one service operation and closes it again, so the
// CLI and a running server see the same persisted state.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/DataTable/internal/application"
	"github.com/JonMunkholm/DataTable/internal/config"
	"github.com/JonMunkholm/DataTable/internal/core"
	"github.com/JonMunkholm/DataTable/internal/logging"
)

// closeTimeout bounds waiting for the store on exit.
const closeTimeout = 5 * time.Second

// CLI holds the streams and configuration source for one invocation.
type CLI struct {
	lookup config.LookupFunc
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	format   string
	logLevel string
	noColor  bool

	app *application.App
}

// New returns a CLI reading configuration through lookup.
func New(lookup config.LookupFunc, stdin io.Reader, stdout, stderr io.Writer) *CLI {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &CLI{lookup: lookup, stdin: stdin, stdout: stdout, stderr: stderr}
}

// Execute runs the command line in args.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.newRootCommand()
	root.SetArgs(args)
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	err := root.ExecuteContext(core.ContextWithSource(ctx, "cli"))
	if c.app != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := c.app.Close(closeCtx); cerr != nil {
			slog.Warn("close store", "error", cerr)
		}
		c.app = nil
	}
	return err
}

func (c *CLI) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "datatable",
		Short: "Manage the persisted data table",
		Long: `datatable imports, edits and exports the table that the web UI shows.

Configuration is read from the same environment variables as the server
(STORAGE_MODE, STORAGE_PATH, DATABASE_URL, ...).`,
		PersistentPreRunE: c.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVarP(&c.format, "format", "f", "table", "output format: table, json, yaml")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		c.newImportCommand(),
		c.newExportCommand(),
		c.newRowsCommand(),
		c.newEditCommand(),
		c.newColumnsCommand(),
		c.newStateCommand(),
		c.newThemeCommand(),
		c.newResetCommand(),
	)
	return root
}

// setup loads configuration and opens the table before any command runs.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if c.noColor {
		color.NoColor = true
	}
	if _, err := parseFormat(c.format); err != nil {
		return err
	}

	cfg, err := config.LoadFrom(c.lookup)
	if err != nil {
		return err
	}
	level := cfg.Logging.Level
	if c.logLevel != "" {
		level = c.logLevel
	}
	slog.SetDefault(logging.New(c.stderr, level, cfg.Logging.Format))

	app, err := application.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	c.app = app
	return nil
}

func (c *CLI) service() *core.Service {
	return c.app.Service
}

// parseAssignments turns key=value arguments into a field map.
func parseAssignments(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected column=value, got %q", core.ErrInvalidRequest, arg)
		}
		fields[k] = v
	}
	return fields, nil
}
