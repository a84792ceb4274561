package main

import (
	"fmt"

	"github.com/geoquality/surveyform/internal/derive"
	"github.com/spf13/cobra"
)

var accuracyTypeCmd = &cobra.Command{
	Use:   "accuracy-type [thematic|attribute|model|plausibility]",
	Short: "Choose the accuracy assessment on the conformance page",
	Long: `Persists the accuracy type and prints the detail panel it opens. Without an argument, prints the
type suggested by the dataset's data type.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAccuracyType,
}

func init() {
	rootCmd.AddCommand(accuracyTypeCmd)
}

func runAccuracyType(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		in := derive.ResolveInputs(s.store.State(ctx))
		suggested, ok := derive.DefaultAccuracyType(in.DataType)
		if !ok {
			_, _ = fmt.Fprintln(out, "No accuracy type suggested for this data type")
			return nil
		}
		_, _ = fmt.Fprintf(out, "Suggested: %s\n", suggested)
		return nil
	}

	panel, err := derive.SelectAccuracyType(ctx, s.store, args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Accuracy type %s (panel %s)\n", args[0], panel)
	return nil
}
