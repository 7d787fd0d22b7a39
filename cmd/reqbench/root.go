package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"reqbench/pkg/config"
	"reqbench/pkg/logger"
	"reqbench/pkg/ui"
)

var (
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFormat  string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reqbench",
	Short: "Checkpoint profiler for Go HTTP handlers",
	Long: `reqbench records named checkpoints during a request, measuring the time
spent between them and the peak memory of the process, and renders a report
at the end of the request.

Use 'serve' to try the HTML widget on a demo server and 'run' to profile a
synthetic workload in the terminal.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetNoColor(noColor)
		ui.SetQuietMode(quiet)

		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Parent() != configCmd {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.reqbench.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and reports")

	rootCmd.SetVersionTemplate(`reqbench {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads the configuration with the flags the user set on cmd applied
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := make(map[string]interface{})
	fs := cmd.Flags()

	for _, name := range []string{"log-level", "log-format", "addr", "memory-source"} {
		if f := fs.Lookup(name); f != nil && f.Changed {
			flags[name] = f.Value.String()
		}
	}
	if f := fs.Lookup("enabled"); f != nil && f.Changed {
		enabled, _ := fs.GetBool("enabled")
		flags["enabled"] = enabled
	}

	return config.Load(configFile, flags)
}

// setup loads the configuration and initializes the global logger
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
