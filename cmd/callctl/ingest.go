package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/callbook/internal/documents"
	"github.com/JaimeStill/callbook/pkg/formatting"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Register text documents",
	Long: `Register one or more text files as documents. Transcriptions are
queued for the pending processor; manual documents are processed
immediately unless --no-process is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		docType := documents.Type(ingestType)
		if !docType.Valid() {
			return fmt.Errorf("unknown document type %q", ingestType)
		}

		ctx := cmd.Context()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		var failed int
		for _, path := range args {
			doc, err := ingestFile(cmd, path, docType)
			switch {
			case errors.Is(err, documents.ErrDuplicate):
				fmt.Printf("%s %s already registered\n", yellow("skip"), path)
				continue
			case err != nil:
				failed++
				fmt.Printf("%s %s: %v\n", red("fail"), path, err)
				continue
			}

			fmt.Printf("%s %s %s (%s)\n", green("ok"), path, doc.ID, formatting.FormatBytes(doc.SizeBytes, 1))

			if !docType.Manual() || ingestNoProcess {
				continue
			}

			outcome, err := current.domain.Workflow.ProcessDocument(ctx, doc.ID, false)
			if err != nil {
				failed++
				fmt.Printf("  %s %v\n", red("process failed:"), err)
				continue
			}
			printOutcome(outcome)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

var (
	ingestType      string
	ingestNoProcess bool
)

func ingestFile(cmd *cobra.Command, path string, docType documents.Type) (*documents.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text, err := documents.DecodeText(data)
	if err != nil {
		return nil, err
	}
	if documents.Blank(text) {
		return nil, fmt.Errorf("file has no text")
	}

	contentType := "text/plain"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		contentType = "application/json"
	}

	return current.domain.Documents.Create(cmd.Context(), documents.CreateCommand{
		Text:        text,
		Filename:    filepath.Base(path),
		DocType:     docType,
		ContentType: contentType,
	})
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestType, "type", "t", string(documents.TypeTranscription),
		"Document type (transcription, manual_faq, manual_instruction, manual_knowledge)")
	ingestCmd.Flags().BoolVar(&ingestNoProcess, "no-process", false, "Register manual documents without processing them")
	rootCmd.AddCommand(ingestCmd)
}
