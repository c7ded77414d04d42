package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "List the compliance frameworks the backend supports",
	Run:   runFrameworks,
}

func init() {
	rootCmd.AddCommand(frameworksCmd)
}

func runFrameworks(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app, _ := setup(ctx)
	defer func() {
		_ = app.Stop(context.Background())
	}()

	frameworks, err := app.Client().GetFrameworks(ctx)
	if err != nil {
		slog.Error("Failed to load frameworks", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTANDARDS")
	for _, f := range frameworks {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", f.ID, f.Name, len(f.Standards))
	}
	_ = w.Flush()
}
