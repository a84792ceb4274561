package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mutateCmd = &cobra.Command{
	Use:   "mutate",
	Short: "Edit one control on a page and save it",
	Long: `Sets a control on the page (or keeps its current value when --value is omitted), persists it
as the user's edit would, records its score when the control is a score field, and recomputes
derived values on the page.`,
	Args: cobra.NoArgs,
	RunE: runMutate,
}

var (
	mutatePage   string
	mutateField  string
	mutateValue  string
	mutateOutput string
)

func init() {
	mutateCmd.Flags().StringVarP(&mutatePage, "page", "p", "", "Path to the survey page HTML (required)")
	mutateCmd.Flags().StringVarP(&mutateField, "field", "f", "", "Control id (required)")
	mutateCmd.Flags().StringVarP(&mutateValue, "value", "v", "", "New value; JSON values keep their type")
	mutateCmd.Flags().StringVarP(&mutateOutput, "out", "o", "", "Path to write the updated page")

	for _, name := range []string{"page", "field"} {
		if err := mutateCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	rootCmd.AddCommand(mutateCmd)
}

func runMutate(cmd *cobra.Command, _ []string) error {
	page, err := loadPage(mutatePage)
	if err != nil {
		return err
	}
	if _, ok := page.Field(mutateField); !ok {
		return fmt.Errorf("field %q not found on %s", mutateField, page.ID())
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	sync := s.synchronizer(page)
	if cmd.Flags().Changed("value") {
		err = sync.SetAndSave(ctx, mutateField, parseValue(mutateValue))
	} else {
		err = sync.OnFieldMutated(ctx, mutateField)
	}
	if err != nil {
		return err
	}

	coord := sync.Classify(mutateField)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s/%s\n", mutateField, coord.Section, coord.Subsection)

	if mutateOutput != "" {
		return writePage(cmd, page, mutateOutput)
	}
	return nil
}
