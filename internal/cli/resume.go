package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vithaluntold/rai-compliance-client/internal/core/domain"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [document_id]",
	Short: "Recover workflow state for a document after a restart",
	Long: `Reconstructs as much workflow state as the server will report for the
given document. With no argument, lists resumable sessions from the
session store.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&outPath, "out", "", "write recovered results to this file")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	app, _ := setup(ctx)
	defer func() {
		_ = app.Stop(context.Background())
	}()

	if len(args) == 0 {
		sessions, err := app.Sessions().List(ctx)
		if err != nil {
			slog.Error("Failed to list sessions", "error", err)
			os.Exit(1)
		}
		if len(sessions) == 0 {
			fmt.Println("No resumable sessions.")
			return
		}
		for _, s := range sessions {
			fmt.Printf("%s\tstep=%s\tupdated=%s\n", s.DocumentID, s.Step, s.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return
	}

	documentID := args[0]
	mgr := app.NewManager(uuid.NewString())
	unsubscribe := mgr.Notifier().Subscribe(renderEvent)
	defer unsubscribe()

	state, err := mgr.Recover(ctx, documentID)
	if err != nil {
		os.Exit(1)
	}

	fmt.Printf("Document %s: status=%s\n", documentID, state.Document.Status)
	if state.Metadata.Extracted() {
		fmt.Printf("Company: %s\n", state.Metadata.CompanyName)
	}

	if state.Document.Status == domain.StatusCompleted {
		artifact, err := mgr.Export(ctx, documentID)
		if err != nil {
			slog.Error("Export failed", "error", err)
			os.Exit(1)
		}
		if outPath != "" {
			if err := os.WriteFile(outPath, artifact, 0o644); err != nil {
				slog.Error("Failed to write report", "path", outPath, "error", err)
				os.Exit(1)
			}
			fmt.Printf("Report written to %s\n", outPath)
		} else {
			fmt.Println(string(artifact))
		}
		return
	}

	if state.Document.Status == domain.StatusProcessing {
		fmt.Println("Analysis still running; polling for completion...")
		results, err := mgr.PollProgress(ctx, documentID)
		if err != nil {
			os.Exit(1)
		}
		fmt.Printf("Analysis complete: %d sections\n", len(results.Sections))
	}
}
