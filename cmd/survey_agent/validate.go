package main

import (
	"encoding/json"
	"fmt"

	"github.com/geoquality/surveyform/internal/observability"
	"github.com/geoquality/surveyform/internal/schemas"
	schemafiles "github.com/geoquality/surveyform/schemas"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a snapshot or export against its JSON schema",
	Long: `Validates a JSON file against the snapshot or export schema. Without --in, validates the
stored survey state against the snapshot schema.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var (
	validateSchema string
	validateInput  string
)

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", "snapshot", "Schema to use: snapshot or export")
	validateCmd.Flags().StringVarP(&validateInput, "in", "i", "", "Path to JSON file (default: stored state)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var name string
	switch validateSchema {
	case "snapshot":
		name = schemafiles.Snapshot
	case "export":
		name = schemafiles.Export
	default:
		return fmt.Errorf("unknown schema %q (expected snapshot or export)", validateSchema)
	}

	var err error
	if validateInput != "" {
		err = schemas.ValidateFile(name, validateInput)
	} else {
		if validateSchema != "snapshot" {
			return fmt.Errorf("--in is required for the %s schema", validateSchema)
		}
		err = validateStored(cmd)
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintValidation(validateSchema, err)
	if err != nil {
		return fmt.Errorf("%s validation failed", validateSchema)
	}
	return nil
}

func validateStored(cmd *cobra.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := json.Marshal(s.store.Snapshot(cmd.Context()))
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return schemas.ValidateSnapshot(data)
}
