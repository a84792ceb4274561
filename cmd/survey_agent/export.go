package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/geoquality/surveyform/internal/observability"
	"github.com/geoquality/surveyform/internal/report"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the evaluation export file",
	Long: `Writes the evaluation as {title}_evaluation_{timestamp}.json after checking it against the export
schema. With --chart, writes the spider-chart data as {title}_spider_chart_{timestamp}.json instead.
With --page, unsaved score fields on that page are included in the scores.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var (
	exportDir   string
	exportChart bool
	exportPage  string
)

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "out-dir", "d", ".", "Directory to write the export into")
	exportCmd.Flags().BoolVar(&exportChart, "chart", false, "Export spider-chart data only")
	exportCmd.Flags().StringVarP(&exportPage, "page", "p", "", "Path to a survey page whose score fields are merged in")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	snap := s.store.Snapshot(ctx)
	sum, err := s.summarize(ctx, exportPage)
	if err != nil {
		return err
	}
	now := s.store.Now()
	title := snap.Subsection(survey.Section1, survey.SubBasic).Text("datasetTitle")

	var (
		payload any
		name    string
	)
	if exportChart {
		payload = report.BuildChartExport(sum, now)
		name = report.ChartFilename(title, now)
	} else {
		exp := report.NewExport(snap, sum, now)
		if err := exp.Validate(); err != nil {
			observability.NewPrinter(cmd.ErrOrStderr()).PrintValidation("export", err)
			return fmt.Errorf("export does not match schema: %w", err)
		}
		payload = exp
		name = report.Filename(title, now)
	}

	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}

	path := filepath.Join(exportDir, name)
	if err := os.WriteFile(path, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	s.logger.Info("export written", "path", path, "scores", sum.TotalScores)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", path)
	return nil
}
