// Command xlsagg inspects and round-trips BIFF8 workbooks and PowerPoint
// slide lists at the record level.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	xls "github.com/TsubasaBE/go-xls"
	"github.com/TsubasaBE/go-xls/internal/config"
)

const appName = "xlsagg"

// initializeAppContext prepares the environment after the command line has
// been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	env := envFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		env.Cfg.Logging.ConsoleLogger.Level = "debug"
	}
	if env.Log, err = env.Cfg.Logging.Prepare(); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.redirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", xls.Version), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	env.Log.Debug("Program ended", zap.Duration("elapsed", env.uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	env.restoreLog()
	return nil
}

// Errors from subcommands are regular errors; they are logged here and the
// exit code is set in main.
var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := envFromContext(ctx)
	if env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            appName,
		Usage:           "record-level inspection and round trip of .xls workbooks",
		Version:         xls.Version + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log at debug level, including every aggregate diagnostic"},
		},
		Commands: []*cli.Command{
			{
				Name:         "dump",
				Usage:        "Prints the aggregate layout of every worksheet",
				OnUsageError: usageErrorHandler,
				Action:       runDump,
				ArgsUsage:    "SOURCE",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "sheet", Aliases: []string{"s"}, Usage: "only dump sheet `N` (1-based)"},
					&cli.BoolFlag{Name: "values", Aliases: []string{"v"}, Usage: "print cell values after the layout"},
				},
			},
			{
				Name:         "roundtrip",
				Usage:        "Rebuilds every worksheet and writes the Workbook stream back",
				OnUsageError: usageErrorHandler,
				Action:       runRoundTrip,
				ArgsUsage:    "SOURCE DESTINATION",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "verify", Usage: "read the output back and check that a second pass is byte-identical"},
				},
				CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    .xls compound file, or a raw Workbook stream written by this command

DESTINATION:
    file to receive the raw Workbook stream (not a compound file)
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "slides",
				Usage:        "Lists the slide text sets of a PowerPoint document",
				OnUsageError: usageErrorHandler,
				Action:       runSlides,
				ArgsUsage:    "SOURCE",
			},
			{
				Name:         "dumpconfig",
				Usage:        "Dumps either default or actual configuration (YAML)",
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// os.Exit is called at the end of main, make sure there are no other
	// deferred functions after that
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	fname := cmd.Args().Get(0)

	var (
		err   error
		data  []byte
		state string
	)

	out := cmd.Root().Writer
	if len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer f.Close()
		out = f
	}

	if cmd.Bool("default") {
		state = "default"
		data = config.Prepare()
	} else {
		state = "actual"
		if data, err = config.Dump(env.Cfg); err != nil {
			return fmt.Errorf("unable to get configuration: %w", err)
		}
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Debug("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
