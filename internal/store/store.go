// Package store provides grant-record persistence drivers.
package store

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/nestlock/nestlock/internal/config"
	"github.com/nestlock/nestlock/internal/core"
)

// Open builds a grant store from the configured driver type. The inline
// driver options are decoded into the driver's own option struct.
func Open(cfg config.StoreConfig) (core.GrantStore, error) {
	switch cfg.Type {
	case "", "memory":
		return NewInMemoryGrantStore(), nil
	case "sqlite":
		var opts SQLiteOptions
		if err := mapstructure.Decode(cfg.Config, &opts); err != nil {
			return nil, fmt.Errorf("decoding sqlite store options: %w", err)
		}
		return NewSQLiteGrantStore(opts)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
