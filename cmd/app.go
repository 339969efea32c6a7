package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/oztrk/careerbot/internal/advice/gemini"
	"github.com/oztrk/careerbot/internal/catalog"
	"github.com/oztrk/careerbot/internal/dispatch"
	"github.com/oztrk/careerbot/internal/interview"
	"github.com/oztrk/careerbot/internal/secrets"
	"github.com/oztrk/careerbot/internal/store"
	"go.uber.org/zap"
)

const (
	defaultListen      = ":8080"
	defaultDatabase    = "./data/careerbot.db"
	defaultCatalog     = "./questions.json"
	defaultIdleTimeout = 30 * time.Minute
)

// bot bundles the wired components shared by the serve and chat commands.
type bot struct {
	catalog    *catalog.Catalog
	store      *store.SQLiteStore
	engine     *interview.Engine
	dispatcher *dispatch.Dispatcher
	idleSweep  time.Duration
}

func (b *bot) Close() error {
	return b.store.Close()
}

// buildBot wires the catalog, store, Gemini recommender and quiz engine
// from the configuration. Every failure here is startup-fatal to the caller.
func buildBot(ctx context.Context, config *Config, logger *zap.Logger) (*bot, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	catalogPath := config.Catalog
	if catalogPath == "" {
		catalogPath = defaultCatalog
	}

	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded", zap.String("path", catalogPath), zap.Int("questions", cat.Len()))

	dbPath := config.Database
	if dbPath == "" {
		dbPath = defaultDatabase
	}

	st, err := store.NewSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	logger.Info("session store opened", zap.String("path", dbPath))

	recommender, err := buildRecommender(ctx, config.Gemini, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	engineCfg := interview.Config{}
	idleSweep := defaultIdleTimeout
	if config.Interview != nil {
		engineCfg.HistoryLimit = config.Interview.HistoryLimit
		engineCfg.MaxAnswerRunes = config.Interview.MaxAnswerLength
		if config.Interview.IdleTimeout > 0 {
			idleSweep = config.Interview.IdleTimeout
		}
	}

	engine := interview.New(cat, st, recommender, engineCfg, logger)

	return &bot{
		catalog:    cat,
		store:      st,
		engine:     engine,
		dispatcher: dispatch.New(engine, cat, logger),
		idleSweep:  idleSweep,
	}, nil
}

func buildRecommender(ctx context.Context, cfg *GeminiConfig, logger *zap.Logger) (*gemini.Recommender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gemini configuration is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model)
	if err != nil {
		return nil, err
	}

	recLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)

	return gemini.NewRecommender(generator, cfg.Timeout, cfg.MaxLogLength, recLogger), nil
}
