package main

import (
	"encoding/json"
	"fmt"

	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/observability"
	"github.com/spf13/cobra"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Show derived resolution, deviation and interpretation values",
	Long: `Computes optimal resolution, spatial, temporal and coverage deviations, the score suggestion and
the overall interpretation from stored state. With --page, controls on that page take precedence and
the derived outputs are written into it.`,
	Args: cobra.NoArgs,
	RunE: runDerive,
}

var (
	derivePage   string
	deriveOutput string
	deriveJSON   bool
)

func init() {
	deriveCmd.Flags().StringVarP(&derivePage, "page", "p", "", "Path to a survey page HTML")
	deriveCmd.Flags().StringVarP(&deriveOutput, "out", "o", "", "Path to write the page with derived outputs (requires --page)")
	deriveCmd.Flags().BoolVar(&deriveJSON, "json", false, "Print values as JSON")
	rootCmd.AddCommand(deriveCmd)
}

func runDerive(cmd *cobra.Command, _ []string) error {
	if deriveOutput != "" && derivePage == "" {
		return fmt.Errorf("--out requires --page")
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	var v derive.Values
	if derivePage != "" {
		page, err := loadPage(derivePage)
		if err != nil {
			return err
		}
		v = s.engine.ApplyToPage(ctx, page)
		if deriveOutput != "" {
			if err := writePage(cmd, page, deriveOutput); err != nil {
				return err
			}
		}
	} else {
		v = s.engine.Compute(ctx, nil)
	}

	if deriveJSON {
		jsonBytes, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal derived values: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(jsonBytes))
		return nil
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintDerived(v)
	return nil
}
