package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/farxc/ecommerce_medallion/internal/gold"
	"github.com/farxc/ecommerce_medallion/internal/pipeline"
	"github.com/farxc/ecommerce_medallion/internal/store"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run bronze, silver and gold in sequence",
	Long: `Clears the output directory, ingests every CSV under the input directory
into bronze, cleans bronze into silver and rebuilds the gold tables.

A file that fails is logged and skipped unless --fail-fast is set. The
command exits non-zero when any file failed.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	const component = "CLI"
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := pipeline.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	summary, err := rt.Orchestrator.Run(ctx, store.TriggerTypeManual)
	if err != nil {
		return err
	}

	printSummary(cmd, summary)
	if failures := summary.Failures(); len(failures) > 0 {
		for _, f := range failures {
			rt.Logger.Error(component, "File failed: stage=%s path=%s err=%v", f.Stage, f.Path, f.Err)
		}
		return fmt.Errorf("%d file(s) failed", len(failures))
	}
	return nil
}

func printSummary(cmd *cobra.Command, summary pipeline.RunSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s\n", summary.RunID, summary.Status())
	fmt.Fprintf(out, "  bronze: %d/%d files\n", summary.Bronze.Succeeded, summary.Bronze.Files)
	fmt.Fprintf(out, "  silver: %d/%d files\n", summary.Silver.Succeeded, summary.Silver.Files)
	if summary.Gold != nil {
		for _, name := range gold.Tables {
			fmt.Fprintf(out, "  gold %s: %d rows\n", name, summary.Gold.Rows[name])
		}
	}
}
