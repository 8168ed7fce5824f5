package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gearscope/spec-factory/internal/blob"
	"github.com/gearscope/spec-factory/internal/contract"
	"github.com/gearscope/spec-factory/internal/export"
	"github.com/gearscope/spec-factory/internal/publish"
)

// runtimeEnv bundles the wired store, contract cache, and publish engine
// shared by the commands.
type runtimeEnv struct {
	store     *blob.DualStore
	contracts *contract.Cache
	cstore    *contract.Store
	engine    *publish.Engine
}

func (e *runtimeEnv) Close() {
	_ = e.store.Close()
}

// initStore opens the artifact store named by store.driver.
func initStore(ctx context.Context) (*blob.DualStore, error) {
	switch cfg.Store.Driver {
	case "fs":
		fs, err := blob.NewFS(cfg.Store.RootDir)
		if err != nil {
			return nil, err
		}
		return blob.NewDualStore(fs), nil
	case "sqlite":
		db, err := blob.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return blob.NewDualStore(db), nil
	case "postgres":
		pg, err := blob.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return blob.NewDualStore(pg), nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEnv wires the runtime environment, including the bulk exporter when an
// output directory is configured.
func initEnv(ctx context.Context) (*runtimeEnv, error) {
	store, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	cstore := contract.NewStore(store, cfg.Contracts.MirrorPrefix)
	cache := contract.NewCache(cstore, time.Duration(cfg.Contracts.CacheTTLSecs)*time.Second)
	engine := publish.NewEngine(store, cache, nil)

	if cfg.Export.OutputDir != "" {
		loader := export.NewRelationalLoader(
			cfg.Export.RelationalTool,
			time.Duration(cfg.Export.RelationalTimeoutSecs)*time.Second,
		)
		engine.SetExporter(export.NewExporter(store, cache, cfg.Export.OutputDir, loader))
	}

	return &runtimeEnv{store: store, contracts: cache, cstore: cstore, engine: engine}, nil
}
