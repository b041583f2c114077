package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/callbook/internal/dedup"
)

var (
	searchLimit     int
	searchThreshold float64
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find stored questions similar to a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		hits, err := current.domain.Workflow.SearchSemantic(cmd.Context(), query, searchLimit, searchThreshold)
		if err != nil {
			return err
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		if len(hits) == 0 {
			fmt.Println(gray("No similar questions"))
			return nil
		}

		for _, h := range hits {
			fmt.Printf("%s %s\n", cyan(fmt.Sprintf("%5.1f%%", h.SimilarityPercent)), h.Text)
			fmt.Printf("       %s\n", gray(fmt.Sprintf("%s  %s  asked %d times", h.QuestionID, h.Cluster, h.TimesAsked)))
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <text>",
	Short: "Check whether a question already exists",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := current.domain.Workflow.ResolveQuestion(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		switch res.Kind {
		case dedup.Matched:
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s %s (%.3f)\n", green("matched"), res.QuestionID, res.Similarity)
		case dedup.NoEmbedding:
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Println(yellow("embedding unavailable"))
		default:
			fmt.Printf("no match (best %.3f)\n", res.Similarity)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum hits (0 uses the configured default)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "Minimum similarity (0 uses the configured default)")
	rootCmd.AddCommand(searchCmd, resolveCmd)
}
