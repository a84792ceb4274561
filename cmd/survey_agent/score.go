package main

import (
	"fmt"

	"github.com/geoquality/surveyform/internal/observability"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Record or retract a quality score",
	Long:  "Records a 1-4 score for a field within its score group. An empty or non-numeric value retracts the field's score.",
	Args:  cobra.NoArgs,
	RunE:  runScore,
}

var (
	scoreField   string
	scoreValue   string
	scoreGroup   string
	scoreSection string
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreField, "field", "f", "", "Score field id (required)")
	scoreCmd.Flags().StringVarP(&scoreValue, "value", "v", "", "Score value; empty retracts")
	scoreCmd.Flags().StringVarP(&scoreGroup, "group", "g", "", "Score group (required)")
	scoreCmd.Flags().StringVarP(&scoreSection, "section", "s", "", "Section the field belongs to (required)")

	for _, name := range []string{"field", "group", "section"} {
		if err := scoreCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	section, err := parseSection(scoreSection)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.ledger.RecordScore(ctx, scoreField, scoreValue, scoreGroup, section); err != nil {
		return fmt.Errorf("failed to record score: %w", err)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintScoreSummary(s.ledger.Summarize(ctx, nil))
	return nil
}
