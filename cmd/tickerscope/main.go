package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/tickerscope/internal/common"
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

// command is one tickerscope subcommand. run receives the arguments after the
// subcommand name and returns the process exit code.
type command struct {
	name  string
	usage string
	run   func(args []string) int
}

var commands = []command{
	{name: "serve", usage: "Run the HTTP API server (default)", run: runServe},
	{name: "analyze", usage: "Group tickers by institutional ownership", run: runAnalyze},
	{name: "report", usage: "Print the full report for one ticker", run: runReport},
	{name: "version", usage: "Print version information", run: runVersion},
}

func main() {
	defer common.RecoverWithCrashFile()
	common.LoadVersionFromFile()

	args := os.Args[1:]
	name := "serve"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		name, args = args[0], args[1:]
	}

	for _, cmd := range commands {
		if cmd.name == name {
			os.Exit(cmd.run(args))
		}
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	printUsage()
	os.Exit(2)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: tickerscope <command> [flags] [tickers...]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", cmd.name, cmd.usage)
	}
}

// commonFlags registers the flags every subcommand shares
func commonFlags(fs *flag.FlagSet) *configPaths {
	var paths configPaths
	fs.Var(&paths, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	fs.Var(&paths, "c", "Configuration file path (shorthand)")
	return &paths
}

// loadConfig runs the startup sequence: defaults -> files -> env, then CLI
// overrides. The config file is auto-discovered when none is given.
func loadConfig(paths configPaths, port int, host string) (*common.Config, error) {
	if len(paths) == 0 {
		if _, err := os.Stat("tickerscope.toml"); err == nil {
			paths = append(paths, "tickerscope.toml")
		} else if _, err := os.Stat("deployments/local/tickerscope.toml"); err == nil {
			paths = append(paths, "deployments/local/tickerscope.toml")
		}
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		return nil, err
	}
	common.ApplyFlagOverrides(config, port, host)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// fatalStartup reports configuration errors before the real logger exists
func fatalStartup(paths configPaths, err error) int {
	tempLogger := common.GetLogger()
	if len(paths) == 0 {
		tempLogger.Error().Err(err).Msg("Failed to load configuration")
	} else {
		tempLogger.Error().Strs("paths", paths).Err(err).Msg("Failed to load configuration files")
	}
	return 1
}

func runVersion(args []string) int {
	fmt.Println(common.GetFullVersion())
	return 0
}
