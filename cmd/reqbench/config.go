package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"reqbench/pkg/config"
	"reqbench/pkg/ui"
)

const defaultConfigPath = ".reqbench.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage reqbench configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (REQBENCH_*, also read from .env)
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a file",
	Long: `Write the default configuration to ./.reqbench.yaml, or to the path given
with --config. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	ui.PrintBlock(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	warn, _ := cfg.Benchmark.MemoryWarnBytes()
	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Profiling", fmt.Sprintf("%v (level %d)", cfg.Benchmark.IsEnabled(), cfg.Benchmark.Enabled))
	ui.PrintInfo("Routes", cfg.Benchmark.RoutePrefix)
	ui.PrintInfo("Memory source", cfg.Benchmark.MemorySource)
	if warn > 0 {
		ui.PrintInfo("Memory warning", cfg.Benchmark.MemoryWarn)
	}
	ui.PrintInfo("Listen address", cfg.Server.Addr)
	ui.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}
