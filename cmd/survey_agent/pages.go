package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/geoquality/surveyform/internal/htmlform"
	"github.com/spf13/cobra"
)

// loadPage parses a survey page from disk. The page id comes from the file name.
func loadPage(path string) (*htmlform.Page, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("page file not found: %s", path)
	}
	page, err := htmlform.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}
	return page, nil
}

// writePage renders page to out, or to stdout when out is empty.
func writePage(cmd *cobra.Command, page *htmlform.Page, out string) error {
	if out == "" {
		return page.Render(cmd.OutOrStdout())
	}

	outputDir := filepath.Dir(out)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := page.Render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to render page: %w", err)
	}
	return f.Close()
}
