package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/geoquality/surveyform/internal/survey"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <section> <subsection> key=value...",
	Short: "Merge values into a subsection",
	Long: `Shallow-merges key=value pairs into a subsection; keys not named are kept.
Use "." as the subsection to write section-level values.

Values that parse as JSON keep their type (true, ["a","b"]); anything else is stored as text.`,
	Args: cobra.MinimumNArgs(3),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

// parseValue reads a command-line value as a JSON field value, falling back to text.
func parseValue(raw string) survey.FieldValue {
	var v survey.FieldValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return survey.Text(raw)
	}
	return v
}

func parsePairs(pairs []string) (survey.Subsection, error) {
	patch := make(survey.Subsection, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected key=value)", pair)
		}
		patch[strings.TrimSpace(key)] = parseValue(value)
	}
	return patch, nil
}

func runSet(cmd *cobra.Command, args []string) error {
	id, err := parseSection(args[0])
	if err != nil {
		return err
	}
	subsection := args[1]
	if subsection == "." {
		subsection = ""
	}
	patch, err := parsePairs(args[2:])
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.SaveSection(cmd.Context(), id, subsection, patch); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", id, subsection, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %d value(s) to %s/%s\n", len(patch), id, args[1])
	return nil
}
