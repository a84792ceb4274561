package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/geoquality/surveyform/internal/config"
	"github.com/geoquality/surveyform/internal/derive"
	"github.com/geoquality/surveyform/internal/htmlform"
	"github.com/geoquality/surveyform/internal/kvstore"
	"github.com/geoquality/surveyform/internal/observability"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/spf13/cobra"
)

// loadConfig reads the config file and environment, then applies root flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storeBackend != "" {
		cfg.Store.Backend = storeBackend
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session is an opened survey state for one command.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	handle *kvstore.Handle
	store  *survey.Store
	ledger *survey.Ledger
	engine *derive.Engine
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	handle, err := kvstore.Open(cmd.Context(), cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	store := survey.NewStore(handle, survey.WithLogger(logger))
	if err := store.Initialize(cmd.Context()); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("failed to initialize survey state: %w", err)
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		handle: handle,
		store:  store,
		ledger: survey.NewLedger(store, cfg.DedupStrategy()),
		engine: derive.NewEngine(store),
	}, nil
}

func (s *session) Close() error {
	return s.handle.Close()
}

// synchronizer binds a parsed page to the session, recomputing derived outputs after each mutation.
func (s *session) synchronizer(page *htmlform.Page) *survey.Synchronizer {
	return survey.NewSynchronizer(s.store, s.ledger, page.ID(), page, survey.WithAfterMutation(s.engine.Refresh))
}

// summarize builds the score summary, merging the unsaved score fields of the
// page at pagePath when one is given.
func (s *session) summarize(ctx context.Context, pagePath string) (survey.Summary, error) {
	if pagePath == "" {
		return s.ledger.Summarize(ctx, nil), nil
	}
	page, err := loadPage(pagePath)
	if err != nil {
		return survey.Summary{}, err
	}
	return s.ledger.Summarize(ctx, page), nil
}

// parseSection rejects section names outside the five survey parts.
func parseSection(name string) (survey.SectionID, error) {
	id := survey.SectionID(strings.TrimSpace(name))
	if !id.IsKnown() {
		return "", fmt.Errorf("unknown section %q (expected section1..section5)", name)
	}
	return id, nil
}
