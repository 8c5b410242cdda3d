package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chaz8081/mock-interviewer/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract <resume.pdf>",
	Short: "Print the text layer of a resume PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}
	text, err := extract.New().ExtractText(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
