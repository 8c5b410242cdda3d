package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/mock-interviewer/internal/report"
	"github.com/chaz8081/mock-interviewer/internal/types"
)

var (
	renderAnalysisFile string
	renderDomain       string
	renderOutDir       string
)

var renderReportCmd = &cobra.Command{
	Use:   "render-report",
	Short: "Render an analysis text file as a PDF report",
	Long:  "Lay out a previously generated analysis as the interview performance PDF. Use --analysis - to read from stdin.",
	RunE:  runRenderReport,
}

func init() {
	renderReportCmd.Flags().StringVarP(&renderAnalysisFile, "analysis", "a", "", "path to analysis text, or - for stdin (required)")
	renderReportCmd.Flags().StringVarP(&renderDomain, "domain", "d", string(types.DefaultDomain()), "interview domain")
	renderReportCmd.Flags().StringVarP(&renderOutDir, "out", "o", ".", "output directory")
	_ = renderReportCmd.MarkFlagRequired("analysis")
	rootCmd.AddCommand(renderReportCmd)
}

func runRenderReport(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	domain, err := types.ParseDomain(renderDomain)
	if err != nil {
		return err
	}

	var analysis []byte
	if renderAnalysisFile == "-" {
		analysis, err = io.ReadAll(cmd.InOrStdin())
	} else {
		analysis, err = os.ReadFile(renderAnalysisFile)
	}
	if err != nil {
		return fmt.Errorf("read analysis: %w", err)
	}

	now := time.Now()
	data, err := report.NewRenderer(cfg.Report).Render(report.Input{
		Analysis:    string(analysis),
		Domain:      domain,
		GeneratedAt: now,
	})
	if err != nil {
		return err
	}

	path := filepath.Join(renderOutDir, report.Filename(now))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)
	return nil
}
