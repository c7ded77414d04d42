package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [document_id]",
	Short: "Show server-side status and analysis progress for a document",
	Args:  cobra.ExactArgs(1),
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app, _ := setup(ctx)
	defer func() {
		_ = app.Stop(context.Background())
	}()

	documentID := args[0]
	doc, err := app.Client().GetDocument(ctx, documentID)
	if err != nil {
		slog.Error("Failed to fetch document", "document_id", documentID, "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "FIELD\tVALUE")
	_, _ = fmt.Fprintf(w, "status\t%s\n", doc.Status)
	_, _ = fmt.Fprintf(w, "metadata_extraction\t%s\n", doc.MetadataExtraction)
	_, _ = fmt.Fprintf(w, "compliance_analysis\t%s\n", doc.ComplianceAnalysis)
	if doc.Metadata.Extracted() {
		_, _ = fmt.Fprintf(w, "company\t%s\n", doc.Metadata.CompanyName)
	}

	if progress, err := app.Client().GetProgress(ctx, documentID); err == nil {
		_, _ = fmt.Fprintf(w, "progress\t%.0f%%\n", progress.Percentage)
		if progress.CurrentStandard != "" {
			_, _ = fmt.Fprintf(w, "current_standard\t%s\n", progress.CurrentStandard)
		}
	}
	_ = w.Flush()
}
