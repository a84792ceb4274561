package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/geoquality/surveyform/internal/submission"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the final evaluation form",
	Long: `Reads the final evaluation form from a rendered form page (--form) or a JSON file (--in),
checks that every required field is filled in and posts it to the survey API.`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

var (
	submitForm  string
	submitInput string
	submitAPI   string
)

func init() {
	submitCmd.Flags().StringVarP(&submitForm, "form", "f", "", "Path to the filled-in form page HTML")
	submitCmd.Flags().StringVarP(&submitInput, "in", "i", "", "Path to the form as JSON")
	submitCmd.Flags().StringVar(&submitAPI, "api", "", "Survey API base URL (overrides config)")
	rootCmd.AddCommand(submitCmd)
}

// apiClient builds the survey API client from config and an optional override.
func apiClient(override string) (*submission.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	base := cfg.API.URL
	if override != "" {
		base = override
	}
	return submission.NewClient(base), nil
}

// printNotice writes the banner a page would show for this outcome.
func printNotice(w io.Writer, n submission.Notice) {
	_, _ = fmt.Fprintf(w, "[%s] %s\n", n.Variant, n.Message)
}

func readForm() (submission.Form, error) {
	switch {
	case submitForm == "" && submitInput == "":
		return submission.Form{}, fmt.Errorf("one of --form or --in is required")
	case submitForm != "" && submitInput != "":
		return submission.Form{}, fmt.Errorf("--form and --in cannot be used together")
	}

	if submitForm != "" {
		page, err := loadPage(submitForm)
		if err != nil {
			return submission.Form{}, err
		}
		return submission.FormFromFields(page), nil
	}

	content, err := os.ReadFile(submitInput)
	if err != nil {
		return submission.Form{}, fmt.Errorf("failed to read form file: %w", err)
	}
	var form submission.Form
	if err := json.Unmarshal(content, &form); err != nil {
		return submission.Form{}, fmt.Errorf("failed to unmarshal form JSON: %w", err)
	}
	return form, nil
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	form, err := readForm()
	if err != nil {
		return err
	}
	client, err := apiClient(submitAPI)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	sub, err := form.Build()
	if err == nil {
		err = client.Submit(cmd.Context(), sub)
	}
	if err != nil {
		if n, ok := submission.NoticeFor(submission.NoticeSubmit, err); ok {
			printNotice(out, n)
		}
		var verr *submission.ValidationError
		if errors.As(err, &verr) {
			_, _ = fmt.Fprintf(out, "First field to fix: #%s\n", verr.FirstElementID())
		}
		return fmt.Errorf("submission failed: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Submitted evaluation of %q\n", sub.DatasetTitle)
	return nil
}
