package main

import (
	"fmt"
	"strings"

	"github.com/dekarrin/parsekit/cache"
)

// parseStoreConnString parses a cache store connection string of the form
// "mem" or "sqlite:PATH", the same DRIVER[:PARAMS] convention used for
// --db strings.
func parseStoreConnString(s string) (cache.Store, error) {
	parts := strings.SplitN(s, ":", 2)
	driver := strings.ToLower(strings.TrimSpace(parts[0]))

	switch driver {
	case "", "mem":
		return cache.NewMemStore(), nil
	case "sqlite":
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			return nil, fmt.Errorf("sqlite cache store requires path to data directory after ':'")
		}
		return cache.NewSQLiteStore(strings.TrimSpace(parts[1]))
	default:
		return nil, fmt.Errorf("unsupported cache store engine: %q (want 'mem' or 'sqlite:PATH')", driver)
	}
}
