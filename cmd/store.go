package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pricebook/internal/store"
)

// openStore builds the configured store driver.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	case "sqlite":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the sqlite driver")
		}
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
