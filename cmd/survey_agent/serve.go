package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/geoquality/surveyform/internal/server"
	"github.com/spf13/cobra"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the survey state API server",
	Long:  `Start an HTTP server that lets survey pages read and update the stored evaluation.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := server.Config{
		Port:          s.cfg.Server.Port,
		AllowedOrigin: s.cfg.Server.AllowedOrigin,
		RateLimit:     s.cfg.Server.RateLimit,
		Dedup:         s.cfg.DedupStrategy(),
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(s.store, cfg, s.logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
