// -----------------------------------------------------------------------
// Last Modified: Wednesday, 14th October 2026 9:05:12 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockscan/internal/app"
	"github.com/ternarybob/stockscan/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	logLevel     = flag.String("log-level", "", "Log level (overrides config)")
	dataPath     = flag.String("data", "", "Badger database directory (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	flag.Usage = printUsage
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: stockscan [flags] <command> [args]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(out, "  %s\n", c.usage)
	}
	fmt.Fprintf(out, "  version\n\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	common.InstallCrashHandler("./logs")
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("StockScan version %s\n", common.GetFullVersion())
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if args[0] == "version" {
		fmt.Printf("StockScan version %s\n", common.GetFullVersion())
		return
	}

	cmd, ok := findCommand(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("stockscan.toml"); err == nil {
			configFiles = append(configFiles, "stockscan.toml")
		} else if _, err := os.Stat("deployments/local/stockscan.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/stockscan.toml")
		}
	}

	// Startup sequence: config (defaults -> files -> env) -> CLI overrides -> logger
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, *logLevel, *dataPath)

	logger := common.InitLogger(config)

	// Only the long-running command gets the banner; the others may be piped.
	if cmd.name == "watch" && !config.IsProduction() {
		common.PrintBanner(common.GetVersion())
	}

	logger.Debug().
		Strs("config_files", configFiles).
		Str("storage_type", config.Storage.Type).
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Str("base_url", config.AlphaVantage.BaseURL).
		Msg("Resolved configuration (sanitized)")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cmd, application, args[1:], os.Stdout, os.Stderr)
	stop()

	if err := application.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close application")
	}
	os.Exit(code)
}

// run executes cmd and maps its error to an exit status.
func run(ctx context.Context, cmd command, a *app.App, args []string, out, errOut io.Writer) int {
	err := cmd.run(ctx, a, args, out)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(errOut, "%v\nusage: stockscan %s\n", err, cmd.usage)
		return 2
	default:
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
}
