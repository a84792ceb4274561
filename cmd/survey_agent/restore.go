package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Fill a page's controls from saved state",
	Long:  "Writes every saved value of the page's section into the matching controls and renders the result.",
	Args:  cobra.NoArgs,
	RunE:  runRestore,
}

var (
	restorePage   string
	restoreOutput string
)

func init() {
	restoreCmd.Flags().StringVarP(&restorePage, "page", "p", "", "Path to the survey page HTML (required)")
	restoreCmd.Flags().StringVarP(&restoreOutput, "out", "o", "", "Path to write the restored page (default stdout)")

	if err := restoreCmd.MarkFlagRequired("page"); err != nil {
		panic(fmt.Sprintf("failed to mark page flag as required: %v", err))
	}

	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, _ []string) error {
	page, err := loadPage(restorePage)
	if err != nil {
		return err
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	restored := s.synchronizer(page).RestoreIntoPage(cmd.Context())
	s.logger.Info("page restored", "page", page.ID(), "fields", restored)

	if err := writePage(cmd, page, restoreOutput); err != nil {
		return err
	}
	if restoreOutput != "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Restored %d field(s) into %s\n", restored, restoreOutput)
	}
	return nil
}
