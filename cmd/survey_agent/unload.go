package main

import (
	"fmt"

	"github.com/geoquality/surveyform/internal/survey"
	"github.com/spf13/cobra"
)

var unloadCmd = &cobra.Command{
	Use:   "unload",
	Short: "Capture every control on a page",
	Long:  "Saves all non-empty text, checked states and keyword tags on the page into its section's general subsection.",
	Args:  cobra.NoArgs,
	RunE:  runUnload,
}

var unloadPage string

func init() {
	unloadCmd.Flags().StringVarP(&unloadPage, "page", "p", "", "Path to the survey page HTML (required)")

	if err := unloadCmd.MarkFlagRequired("page"); err != nil {
		panic(fmt.Sprintf("failed to mark page flag as required: %v", err))
	}

	rootCmd.AddCommand(unloadCmd)
}

func runUnload(cmd *cobra.Command, _ []string) error {
	page, err := loadPage(unloadPage)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	section, ok := page.ID().Section()
	if !ok {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is not a survey page, nothing captured\n", page.ID())
		return nil
	}
	if err := s.synchronizer(page).BeforeUnload(cmd.Context()); err != nil {
		return fmt.Errorf("failed to capture page: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Captured %s into %s/%s\n", page.ID(), section, survey.SubGeneral)
	return nil
}
