package main

import (
	"encoding/json"
	"fmt"

	"github.com/geoquality/surveyform/internal/dashboard"
	"github.com/geoquality/surveyform/internal/observability"
	"github.com/geoquality/surveyform/internal/submission"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Aggregate submitted evaluations",
	Long:  "Fetches stored evaluations from the survey API and prints average scores per category and the best-scored datasets.",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

var (
	dashboardSearch string
	dashboardMin    int
	dashboardMax    int
	dashboardSort   string
	dashboardAPI    string
	dashboardJSON   bool
)

func init() {
	dashboardCmd.Flags().StringVar(&dashboardSearch, "search", "", "Filter by dataset title")
	dashboardCmd.Flags().IntVar(&dashboardMin, "min-score", 0, "Minimum score filter")
	dashboardCmd.Flags().IntVar(&dashboardMax, "max-score", 0, "Maximum score filter")
	dashboardCmd.Flags().StringVar(&dashboardSort, "sort", "", "Sort order passed to the API")
	dashboardCmd.Flags().StringVar(&dashboardAPI, "api", "", "Survey API base URL (overrides config)")
	dashboardCmd.Flags().BoolVar(&dashboardJSON, "json", false, "Print the full aggregation as JSON")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	client, err := apiClient(dashboardAPI)
	if err != nil {
		return err
	}

	q := submission.Query{Search: dashboardSearch, MinScore: dashboardMin, MaxScore: dashboardMax, Sort: dashboardSort}
	d, err := dashboard.Load(cmd.Context(), client, q)
	if err != nil {
		return err
	}

	if dashboardJSON {
		jsonBytes, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal dashboard: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(jsonBytes))
		return nil
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintDashboard(d)
	return nil
}
