package main

import (
	"fmt"

	"github.com/geoquality/surveyform/internal/submission"
	"github.com/spf13/cobra"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Save the partially filled form as a draft",
	Long:  "Posts every filled-in field of the form page to the survey API as a draft. Required fields are not checked.",
	Args:  cobra.NoArgs,
	RunE:  runDraft,
}

var (
	draftForm string
	draftAPI  string
)

func init() {
	draftCmd.Flags().StringVarP(&draftForm, "form", "f", "", "Path to the form page HTML (required)")
	draftCmd.Flags().StringVar(&draftAPI, "api", "", "Survey API base URL (overrides config)")

	if err := draftCmd.MarkFlagRequired("form"); err != nil {
		panic(fmt.Sprintf("failed to mark form flag as required: %v", err))
	}

	rootCmd.AddCommand(draftCmd)
}

func runDraft(cmd *cobra.Command, _ []string) error {
	page, err := loadPage(draftForm)
	if err != nil {
		return err
	}
	client, err := apiClient(draftAPI)
	if err != nil {
		return err
	}

	err = client.SaveDraft(cmd.Context(), submission.DraftFromFields(page))
	if n, ok := submission.NoticeFor(submission.NoticeDraft, err); ok {
		printNotice(cmd.OutOrStdout(), n)
	}
	if err != nil {
		return fmt.Errorf("draft not saved: %w", err)
	}
	return nil
}
