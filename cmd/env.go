package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/propscan/ownerdata/internal/fallback"
	"github.com/propscan/ownerdata/internal/fetcher"
	"github.com/propscan/ownerdata/internal/resilience"
	"github.com/propscan/ownerdata/internal/resolve"
	"github.com/propscan/ownerdata/internal/store"
	"github.com/propscan/ownerdata/pkg/peoplesearch"
	"github.com/propscan/ownerdata/pkg/propertydata"
)

// resolverEnv bundles the wired dependencies of a command run.
type resolverEnv struct {
	Store    store.ListingStore
	Resolver *resolve.Resolver
}

// Close waits for in-flight write-backs, then releases the store.
func (e *resolverEnv) Close() {
	e.Resolver.Wait()
	e.Store.Close()
}

func initStore(ctx context.Context) (store.ListingStore, error) {
	schemas, err := store.LoadSchemas(cfg.Store.SchemaFile)
	if err != nil {
		return nil, err
	}

	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, schemas)
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath, schemas)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEnv wires the store, side-file cache, provider clients, and resolver.
func initEnv(ctx context.Context, resolverOpts ...resolve.Option) (*resolverEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	var files *fallback.Cache
	if cfg.SideFile.Source != "" {
		opts := fetcher.CSVOptions{Encoding: cfg.SideFile.Encoding}
		if cfg.SideFile.Delimiter != "" {
			opts.Delimiter = rune(cfg.SideFile.Delimiter[0])
		}
		files = fallback.NewCache(fetcher.New(), cfg.SideFile.Source, opts)
	}

	var property resolve.PropertyClient
	if cfg.PropertyData.Key != "" {
		opts := []propertydata.Option{
			propertydata.WithRateLimit(cfg.PropertyData.RatePerSec, cfg.PropertyData.RateBurst),
			propertydata.WithRetry(resilience.RetryConfig{MaxAttempts: cfg.PropertyData.MaxAttempts}),
		}
		if cfg.PropertyData.BaseURL != "" {
			opts = append(opts, propertydata.WithBaseURL(cfg.PropertyData.BaseURL))
		}
		property = propertydata.New(cfg.PropertyData.Key, opts...)
	} else {
		zap.L().Warn("property provider disabled, no API key configured")
	}

	var people resolve.PeopleClient
	if cfg.PeopleSearch.Key != "" {
		opts := []peoplesearch.Option{
			peoplesearch.WithRateLimit(cfg.PeopleSearch.RatePerSec, cfg.PeopleSearch.RateBurst),
			peoplesearch.WithRetry(resilience.RetryConfig{MaxAttempts: cfg.PeopleSearch.MaxAttempts}),
		}
		if cfg.PeopleSearch.BaseURL != "" {
			opts = append(opts, peoplesearch.WithBaseURL(cfg.PeopleSearch.BaseURL))
		}
		people = peoplesearch.New(cfg.PeopleSearch.Key, opts...)
	} else {
		zap.L().Warn("people-search provider disabled, no API key configured")
	}

	resolverOpts = append([]resolve.Option{
		resolve.WithAnchorCities(cfg.Resolve.AnchorCities),
		resolve.WithWritebackTimeout(time.Duration(cfg.Resolve.WritebackTimeoutSecs) * time.Second),
	}, resolverOpts...)

	return &resolverEnv{
		Store:    st,
		Resolver: resolve.New(st, files, property, people, resolverOpts...),
	}, nil
}
