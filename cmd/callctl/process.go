package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/callbook/internal/workflow"
)

var processForce bool

var processCmd = &cobra.Command{
	Use:   "process <document-id>",
	Short: "Process one document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid document id: %w", err)
		}

		outcome, err := current.domain.Workflow.ProcessDocument(cmd.Context(), id, processForce)
		if err != nil {
			return err
		}
		printOutcome(outcome)
		return nil
	},
}

var pendingLimit int

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Process the pending document queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := current.domain.Workflow.ProcessPending(cmd.Context(), pendingLimit)
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		fmt.Printf("Processed %s of %d, %s errors\n",
			green(summary.Processed), summary.Total, red(summary.Errors))
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Register new files from the watched folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := current.domain.Watcher.Scan(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Registered %d, skipped %d, failed %d\n",
			result.Registered, result.Skipped, result.Failed)
		return nil
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Compute embeddings for questions that have none",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := current.domain.Workflow.BackfillEmbeddings(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Visited %d, updated %d, failed %d\n",
			result.Processed, result.Updated, result.Failed)
		return nil
	},
}

func printOutcome(o workflow.Outcome) {
	status := color.New(color.FgGreen).SprintFunc()
	switch o.Status {
	case workflow.StatusFailed:
		status = color.New(color.FgRed).SprintFunc()
	case workflow.StatusSkipped, workflow.StatusNoExtraction:
		status = color.New(color.FgYellow).SprintFunc()
	}

	fmt.Printf("  %s %s\n", status(string(o.Status)), o.DocumentID)
	if o.Error != "" {
		fmt.Printf("    error: %s\n", o.Error)
	}
	if o.Status == workflow.StatusProcessed {
		fmt.Printf("    questions: %d created, %d matched\n", o.QuestionsCreated, o.QuestionsMatched)
		fmt.Printf("    scripts:   %d created, %d updated\n", o.ScriptsCreated, o.ScriptsUpdated)
	}
}

func init() {
	processCmd.Flags().BoolVarP(&processForce, "force", "f", false, "Reprocess a document that is already processed")
	pendingCmd.Flags().IntVarP(&pendingLimit, "limit", "n", 0, "Maximum documents to process (0 uses the configured batch limit)")
	rootCmd.AddCommand(processCmd, pendingCmd, scanCmd, backfillCmd)
}
