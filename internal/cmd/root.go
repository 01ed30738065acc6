package cmd

import (
	"fmt"
	"os"

	"github.com/farxc/ecommerce_medallion/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	inputDir   string
	outputDir  string
	logLevel   string
	workers    int
	failFast   bool
)

var rootCmd = &cobra.Command{
	Use:   "etl",
	Short: "E-commerce medallion pipeline",
	Long: `Runs the bronze, silver and gold stages over raw e-commerce CSV extracts
(customers, orders, order items, products and shipments).

Bronze copies every input file with provenance columns, silver cleans and
deduplicates each file, gold builds the dimension and fact tables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&inputDir, "input", "", "input directory (default \"input\")")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "", "output directory (default \"output\")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "files processed in parallel per stage")
	rootCmd.PersistentFlags().BoolVar(&failFast, "fail-fast", false, "abort the run on the first failing file")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputDir = inputDir
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("workers") && workers > 0 {
		cfg.Workers = workers
	}
	if flags.Changed("fail-fast") {
		cfg.FailFast = failFast
	}
	return cfg, nil
}
