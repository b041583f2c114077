package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/callbook/internal/summary"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus totals and recent daily activity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		totals, err := current.domain.Summary.Totals(ctx)
		if err != nil {
			return err
		}

		from, to := summary.Window(time.Now(), statsDays)
		days, err := current.domain.Summary.Range(ctx, from, to)
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Callbook ==="))

		fmt.Println(yellow("Documents:"))
		statuses := make([]string, 0, len(totals.Documents))
		for s := range totals.Documents {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		for _, s := range statuses {
			fmt.Printf("  %-24s %d\n", s, totals.Documents[s])
		}

		fmt.Println(yellow("\nQuestions:"))
		fmt.Printf("  %-24s %d\n", "canonical", totals.Questions)
		fmt.Printf("  %-24s %d\n", "variants", totals.Variants)
		fmt.Printf("  %-24s %d\n", "resolved", totals.Resolved)
		fmt.Printf("  %-24s %d\n", "needs work", totals.NeedsWork)
		fmt.Printf("  %-24s %d\n", "no script", totals.NoScript)
		fmt.Printf("  %-24s %d\n", "pending review", totals.PendingReview)
		fmt.Printf("  %-24s %d\n", "missing embeddings", totals.MissingEmbeddings)
		fmt.Printf("  %-24s %d\n", "scripts", totals.Scripts)

		fmt.Println(yellow("\nDaily activity:"))
		if len(days) == 0 {
			fmt.Println("  none")
		}
		for _, d := range days {
			fmt.Printf("  %s  calls %-4d questions %-4d scripts %-4d resolved %-4d unresolved %d\n",
				d.Day.Format("2006-01-02"), d.Calls, d.NewQuestions, d.NewScripts, d.Resolved, d.Unresolved)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVarP(&statsDays, "days", "d", 7, "Number of days of activity to show")
	rootCmd.AddCommand(statsCmd)
}
