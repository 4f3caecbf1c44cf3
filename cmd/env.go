package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dataforge/internal/config"
	"github.com/sells-group/dataforge/internal/contact"
	"github.com/sells-group/dataforge/internal/enrich"
	"github.com/sells-group/dataforge/internal/lists"
	"github.com/sells-group/dataforge/internal/resilience"
	"github.com/sells-group/dataforge/internal/scrape"
	"github.com/sells-group/dataforge/internal/store"
	anthropicpkg "github.com/sells-group/dataforge/pkg/anthropic"
	"github.com/sells-group/dataforge/pkg/firecrawl"
	"github.com/sells-group/dataforge/pkg/icypeas"
	"github.com/sells-group/dataforge/pkg/jina"
	"github.com/sells-group/dataforge/pkg/millionverifier"
)

// appEnv holds the store and list service used by every command.
type appEnv struct {
	Store   store.Store
	Service *lists.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	var st store.Store
	switch c.Store.Driver {
	case "sqlite":
		s, err := store.NewSQLite(c.Store.Path)
		if err != nil {
			return nil, err
		}
		s.SetBatchSize(c.Cleanup.BatchSize)
		st = s
	case "postgres":
		s, err := store.NewPostgres(ctx, c.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
		if err != nil {
			return nil, err
		}
		s.SetBatchSize(c.Cleanup.BatchSize)
		st = s
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEnv opens the store and wires every enrichment collaborator. Missing
// API keys leave the matching collaborator unconfigured; its phase then
// records configuration errors instead of failing the command.
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc := lists.NewService(st, buildCollaborators(cfg),
		enrich.WithDelay(time.Duration(cfg.Enrichment.DelayMS)*time.Millisecond),
	)
	return &appEnv{Store: st, Service: svc}, nil
}

// buildCollaborators constructs the extractor chain and API clients.
func buildCollaborators(c *config.Config) lists.Collaborators {
	scrapeCfg := scrape.Config{
		Timeout:       time.Duration(c.Scrape.TimeoutSecs) * time.Second,
		MaxSubPages:   c.Scrape.MaxSubPages,
		MaxTextLength: c.Scrape.MaxTextLength,
		UserAgent:     c.Scrape.UserAgent,
		ExcludePaths:  c.Scrape.ExcludePaths,
	}

	chain := scrape.NewChain().
		Add(scrape.NewLocalExtractor(scrapeCfg), nil)
	if c.Jina.Key != "" {
		jinaClient := jina.NewClient(c.Jina.Key,
			jina.WithBaseURL(c.Jina.BaseURL),
			jina.WithHTTPClient(&http.Client{Timeout: scrapeCfg.Timeout}),
		)
		chain.Add(
			scrape.NewJinaExtractor(jinaClient, c.Scrape.MaxTextLength),
			resilience.NewBreaker("jina", resilience.DefaultBreakerConfig()),
		)
		zap.L().Debug("jina reader fallback enabled")
	}
	if c.Firecrawl.Key != "" {
		fcClient := firecrawl.NewClient(c.Firecrawl.Key,
			firecrawl.WithBaseURL(c.Firecrawl.BaseURL),
			firecrawl.WithHTTPClient(&http.Client{Timeout: 4 * scrapeCfg.Timeout}),
		)
		chain.Add(
			scrape.NewFirecrawlExtractor(fcClient, c.Scrape.MaxTextLength),
			resilience.NewBreaker("firecrawl", resilience.DefaultBreakerConfig()),
		)
		zap.L().Debug("firecrawl fallback enabled")
	}

	var inferrer *contact.Inferrer
	if c.Anthropic.Key != "" {
		inferrer = contact.NewInferrer(anthropicpkg.NewClient(c.Anthropic.Key), contact.Config{
			Model:     c.Anthropic.Model,
			MaxTokens: c.Anthropic.MaxTokens,
		})
	} else {
		inferrer = contact.NewInferrer(nil, contact.Config{})
		zap.L().Warn("DATAFORGE_ANTHROPIC_KEY not set, contact inference disabled")
	}

	finder := icypeas.NewClient(c.Icypeas.Key, c.Icypeas.Secret,
		icypeas.WithBaseURL(c.Icypeas.BaseURL),
		icypeas.WithRateLimit(c.Icypeas.RateLimit),
	)
	verifier := millionverifier.NewClient(c.MillionVerifier.Key,
		millionverifier.WithBaseURL(c.MillionVerifier.BaseURL),
		millionverifier.WithRateLimit(c.MillionVerifier.RateLimit),
	)
	if c.Icypeas.Key == "" {
		zap.L().Warn("DATAFORGE_ICYPEAS_KEY not set, email discovery disabled")
	}
	if c.MillionVerifier.Key == "" {
		zap.L().Warn("DATAFORGE_MILLIONVERIFIER_KEY not set, email verification disabled")
	}

	return lists.Collaborators{
		Extractor: chain,
		Inferrer:  inferrer,
		Finder:    finder,
		Verifier:  verifier,
	}
}
