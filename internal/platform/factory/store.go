package factory

import (
	"fmt"

	"github.com/tabwatch/tabwatch/internal/config"
	"github.com/tabwatch/tabwatch/internal/store"
	"github.com/tabwatch/tabwatch/internal/store/postgres"
	"github.com/tabwatch/tabwatch/internal/store/sqlite"
)

// NewKV selects the persistence backend based on cfg.DBDriver.
func NewKV(cfg *config.Config) (store.KV, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.OpenKV(cfg.SQLitePath)
	case "postgres":
		return postgres.OpenKV(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
