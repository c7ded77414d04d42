package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/api"
	"github.com/vithaluntold/rai-compliance-client/internal/workflow"
)

var (
	framework string
	standards []string
	outPath   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Upload a document and run the full compliance workflow",
	Args:  cobra.ExactArgs(1),
	Run:   runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&framework, "framework", "", "accounting framework to analyze against")
	analyzeCmd.Flags().StringSliceVar(&standards, "standards", nil, "standards to include (default: all)")
	analyzeCmd.Flags().StringVar(&outPath, "out", "", "write the report artifact to this file")
	_ = analyzeCmd.MarkFlagRequired("framework")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel polling loops on Ctrl-C instead of abandoning them.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received signal, stopping workflow")
		cancel()
	}()

	app, _ := setup(ctx)
	defer func() {
		_ = app.Stop(context.Background())
	}()

	mgr := app.NewManager(uuid.NewString())
	unsubscribe := mgr.Notifier().Subscribe(renderEvent)
	defer unsubscribe()

	results, err := mgr.Run(ctx, args[0], api.FrameworkSelection{
		Framework: framework,
		Standards: standards,
	})
	if err != nil {
		for _, issue := range mgr.Log().DiagnoseIssues() {
			slog.Warn("Diagnosis", "severity", issue.Severity, "finding", issue.Message)
		}
		os.Exit(1)
	}

	artifact, err := mgr.Export(ctx, results.DocumentID)
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
}

// renderEvent prints workflow notifications for a terminal user. Retries
// read as non-alarming; terminal failures carry the actionable message.
func renderEvent(ev workflow.Event) {
	switch ev.Type {
	case workflow.EventStepStarted:
		fmt.Printf("→ %s\n", ev.Message)
	case workflow.EventProgress:
		fmt.Printf("  %3.0f%% %s\n", ev.Fraction*100, ev.Message)
	case workflow.EventRetryScheduled:
		fmt.Printf("  retrying in %s (attempt %d): %s\n", ev.Delay, ev.Attempt, ev.Err.Message)
	case workflow.EventStepCompleted:
		fmt.Printf("✓ %s\n", ev.Message)
	case workflow.EventStepFailed:
		fmt.Printf("✗ %s: %s\n", ev.Step, ev.Err.Message)
	case workflow.EventTerminal:
		if ev.Success {
			fmt.Printf("Done: %s\n", ev.Message)
		} else {
			fmt.Printf("Failed: %s\n", ev.Message)
		}
	}
}
