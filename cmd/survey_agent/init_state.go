package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the empty survey state",
	Long:  "Writes the default five-section state unless one is already stored. Existing state is left untouched.",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	snap := s.store.Snapshot(cmd.Context())
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Survey state ready (backend %s, origin %s, created %s)\n",
		s.cfg.Store.Backend, s.cfg.Store.Origin, snap.Timestamps.Created.Format("2006-01-02 15:04:05"))
	return nil
}
