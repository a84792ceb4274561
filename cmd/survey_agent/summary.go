package main

import (
	"fmt"
	"time"

	"github.com/geoquality/surveyform/internal/observability"
	"github.com/geoquality/surveyform/internal/report"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize quality scores",
	Long: `Prints per-group score averages and the overall score. With --text, prints the full evaluation report.

With --page, score fields on that page are merged in even if they were never saved, using the
configured scores.dedup strategy.`,
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var (
	summaryText bool
	summaryPage string
)

func init() {
	summaryCmd.Flags().BoolVar(&summaryText, "text", false, "Print the plain-text evaluation report")
	summaryCmd.Flags().StringVarP(&summaryPage, "page", "p", "", "Path to a survey page whose score fields are merged in")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	sum, err := s.summarize(ctx, summaryPage)
	if err != nil {
		return err
	}
	if summaryText {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), report.SummaryText(s.store.Snapshot(ctx), sum, time.Local))
		return nil
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintScoreSummary(sum)
	return nil
}
