package main

import (
	"fmt"

	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/spf13/cobra"
)

var navigateCmd = &cobra.Command{
	Use:   "navigate <page>",
	Short: "Show where a page's next and previous buttons lead",
	Long:  "Pages are section1.html through section5.html. Primary data skips the conformance page (section4).",
	Args:  cobra.ExactArgs(1),
	RunE:  runNavigate,
}

func init() {
	rootCmd.AddCommand(navigateCmd)
}

func runNavigate(cmd *cobra.Command, args []string) error {
	page := survey.PageFromPath(args[0])
	if _, ok := page.Section(); !ok {
		return fmt.Errorf("unknown page: %s", page)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	in := derive.ResolveInputs(s.store.State(ctx))
	if !derive.SectionAvailable(in, page) {
		return fmt.Errorf("%s does not apply to this evaluation (data processing level %q)", page, in.DataProcessingLevel)
	}

	out := cmd.OutOrStdout()
	if prev, ok := derive.PreviousPage(in, page); ok {
		_, _ = fmt.Fprintf(out, "Previous: %s\n", prev)
	}
	if next, ok := derive.NextPage(in, page); ok {
		_, _ = fmt.Fprintf(out, "Next: %s\n", next)
	} else {
		_, _ = fmt.Fprintln(out, "Next: (last page)")
	}
	return nil
}
