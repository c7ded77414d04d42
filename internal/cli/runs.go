package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived document-processing runs",
	Run:   runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "maximum number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app, _ := setup(ctx)
	defer func() {
		_ = app.Stop(context.Background())
	}()

	runs, err := app.Archive().ListRecent(ctx, runsLimit)
	if err != nil {
		slog.Error("Failed to list runs", "error", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "DOCUMENT\tSTATUS\tSTARTED\tCRITICALS\tWARNINGS")
	for _, run := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			run.DocumentID, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Criticals, run.Warnings)
	}
	_ = w.Flush()
}
