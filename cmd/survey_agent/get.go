package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get [section] [subsection]",
	Short: "Print stored survey state as JSON",
	Long:  "Prints the whole state, one section, or one subsection. Absent subsections print as an empty object.",
	Args:  cobra.MaximumNArgs(2),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	var out any
	switch len(args) {
	case 0:
		out = s.store.Snapshot(ctx)
	case 1:
		id, err := parseSection(args[0])
		if err != nil {
			return err
		}
		out = s.store.Section(ctx, id)
	default:
		id, err := parseSection(args[0])
		if err != nil {
			return err
		}
		out = s.store.Subsection(ctx, id, args[1])
	}

	jsonBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(jsonBytes))
	return nil
}
