// cmd_bench.go - Benchmark der lokalen Pipeline
// Hauptfunktionen: BenchHandler, newBenchCmd
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tflitebridge/tflite/benchmark"
)

// BenchHandler - Misst MODEL mit synthetischen Quellbildern
func BenchHandler(cmd *cobra.Command, args []string) error {
	p, async, err := preprocessFlags(cmd)
	if err != nil {
		return err
	}

	cfg := benchmark.DefaultConfig()
	cfg.Preprocess = p
	cfg.Async = async
	if cfg.Iterations, err = cmd.Flags().GetInt("iterations"); err != nil {
		return err
	}
	if cfg.WarmupRuns, err = cmd.Flags().GetInt("warmup"); err != nil {
		return err
	}
	if sizes, _ := cmd.Flags().GetString("sizes"); sizes != "" {
		cfg.ImageSizes = strings.Split(sizes, ",")
	}
	if cfg.Iterations <= 0 {
		return fmt.Errorf("iterations must be > 0, got %d", cfg.Iterations)
	}

	it, err := loadInterpreter(cmd, args[0])
	if err != nil {
		return err
	}
	defer it.Close()

	results, err := benchmark.Run(cmd.Context(), it, cfg)
	if err != nil {
		return err
	}

	benchmark.WriteTable(cmd.OutOrStdout(), results)

	if path, _ := cmd.Flags().GetString("csv"); path != "" {
		if err := benchmark.ExportCSV(path, results); err != nil {
			return err
		}
	}
	if path, _ := cmd.Flags().GetString("json"); path != "" {
		if err := benchmark.ExportJSON(path, results); err != nil {
			return err
		}
	}
	return nil
}

func newBenchCmd() *cobra.Command {
	defaults := benchmark.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "bench MODEL",
		Short: "Benchmark decode, resample, encode and inference for a model",
		Args:  cobra.ExactArgs(1),
		RunE:  BenchHandler,
	}
	cmd.Flags().Int("iterations", defaults.Iterations, "Measured runs per image size")
	cmd.Flags().Int("warmup", defaults.WarmupRuns, "Unmeasured warmup runs per image size")
	cmd.Flags().String("sizes", strings.Join(defaults.ImageSizes, ","), "Comma separated source image sizes")
	cmd.Flags().String("csv", "", "Write results as CSV to this file")
	cmd.Flags().String("json", "", "Write results as JSON to this file")

	addLoadFlags(cmd)
	addPreprocessFlags(cmd)
	return cmd
}
