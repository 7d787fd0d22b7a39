package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reqbench/pkg/benchmark"
	"reqbench/pkg/clock"
	"reqbench/pkg/logger"
	"reqbench/pkg/memprobe"
	"reqbench/pkg/report"
	"reqbench/pkg/ui"
)

var (
	runSteps int
	runAlloc string
	runStep  time.Duration
	runLabel string
	runHTML  bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Profile a synthetic workload",
	Long: `Run a synthetic workload of sequential steps, each allocating memory and
sleeping, with a checkpoint after every step, then print the report.`,
	Example: `  # Five steps of 1MB and 10ms each
  reqbench run

  # Bigger allocations, slower steps
  reqbench run --steps 3 --alloc 64MB --step 250ms

  # Print the HTML widget instead of the table
  reqbench run --html`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runSteps, "steps", 5, "number of steps")
	runCmd.Flags().StringVar(&runAlloc, "alloc", "1MB", "memory allocated by each step")
	runCmd.Flags().DurationVar(&runStep, "step", 10*time.Millisecond, "time spent in each step")
	runCmd.Flags().StringVar(&runLabel, "label", "step", "checkpoint label prefix")
	runCmd.Flags().BoolVar(&runHTML, "html", false, "print the HTML report instead of the table")
	runCmd.Flags().Bool("enabled", true, "enable profiling")
	runCmd.Flags().String("memory-source", "", "memory probe (rusage, runtime)")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runSteps < 0 {
		return fmt.Errorf("--steps must not be negative")
	}
	allocBytes, err := humanize.ParseBytes(runAlloc)
	if err != nil {
		return fmt.Errorf("invalid --alloc %q: %w", runAlloc, err)
	}

	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	probe, err := memprobe.ForSource(cfg.Benchmark.MemorySource)
	if err != nil {
		return err
	}

	p := benchmark.New(benchmark.Options{
		Enabled:   cfg.Benchmark.IsEnabled(),
		Clock:     clock.Process(),
		Probe:     probe,
		AssetBase: cfg.Benchmark.RoutePrefix,
	})
	if !p.IsEnabled() {
		ui.PrintWarning("Profiling is disabled, nothing to report")
	}

	ui.PrintInfo("Workload", fmt.Sprintf("%d steps of %s and %s", runSteps, humanize.Bytes(allocBytes), runStep))

	// held until the report is done so the allocations count towards peak memory
	held := make([][]byte, 0, runSteps)
	for i := 1; i <= runSteps; i++ {
		held = append(held, touch(allocBytes))
		time.Sleep(runStep)
		p.Checkpoint(fmt.Sprintf("%s %d", runLabel, i))
	}

	if !p.IsEnabled() {
		return nil
	}

	var out string
	if runHTML {
		out = p.FormattedReport()
	} else {
		out = p.TextReport(report.TextOptions{NoColor: ui.NoColor(), Width: ui.Width(os.Stdout)})
	}
	ui.PrintBlock(out)

	s := p.Finalize()
	logger.LogExecution(logger.GetLogger(), logger.Execution{
		ID:          "run",
		DurationMs:  s.ExecutionTimeMs,
		PeakMemory:  s.PeakMemory,
		Checkpoints: s.CheckpointCount,
	})
	runtime.KeepAlive(held)
	return nil
}

// touch allocates n bytes and writes every page so they become resident
func touch(n uint64) []byte {
	buf := make([]byte, n)
	for i := 0; i < len(buf); i += 4096 {
		buf[i] = 1
	}
	return buf
}
