package cmd

import (
	"fmt"

	"github.com/farxc/ecommerce_medallion/internal/gold"
	"github.com/farxc/ecommerce_medallion/internal/pipeline"
	"github.com/spf13/cobra"
)

var bronzeCmd = &cobra.Command{
	Use:   "bronze",
	Short: "Ingest input files into the bronze layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, func(o *pipeline.Orchestrator) (pipeline.StageReport, error) {
			return o.Bronze(cmd.Context())
		})
	},
}

var silverCmd = &cobra.Command{
	Use:   "silver",
	Short: "Clean the bronze layer into the silver layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, func(o *pipeline.Orchestrator) (pipeline.StageReport, error) {
			report, _, err := o.Silver(cmd.Context())
			return report, err
		})
	},
}

var goldCmd = &cobra.Command{
	Use:   "gold",
	Short: "Rebuild the gold tables from the silver layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rt, err := pipeline.Bootstrap(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		result, err := rt.Orchestrator.Gold(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range gold.Tables {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows -> %s\n", name, result.Rows[name], result.Outputs[name])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bronzeCmd, silverCmd, goldCmd)
}

func runStage(cmd *cobra.Command, stage func(*pipeline.Orchestrator) (pipeline.StageReport, error)) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rt, err := pipeline.Bootstrap(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := stage(rt.Orchestrator)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d files\n", report.Stage, report.Succeeded, report.Files)
	for _, f := range report.Failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "  failed %s: %v\n", f.Path, f.Err)
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d file(s) failed", len(report.Failures))
	}
	return nil
}
