// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/antarena/antclient/internal/config"
	"github.com/antarena/antclient/internal/storage/memory"
	"github.com/antarena/antclient/internal/storage/postgres"
	sqlitestorage "github.com/antarena/antclient/internal/storage/sqlite"
	"github.com/antarena/antclient/internal/storage/websocket"
)

// Backend types accepted by NewBackend.
const (
	TypeMemory    = "memory"
	TypeSQLite    = "sqlite"
	TypePostgres  = "postgres"
	TypeWebSocket = "websocket"
	TypeNone      = "none"
)

var (
	_ Backend    = (*memory.Backend)(nil)
	_ Uploadable = (*memory.Backend)(nil)
	_ Backend    = (*sqlitestorage.Backend)(nil)
	_ Backend    = (*postgres.Backend)(nil)
	_ Backend    = (*websocket.Backend)(nil)
)

// NewBackend creates a storage backend based on configuration. A nil
// Backend with a nil error means recording is disabled.
func NewBackend(cfg config.StorageConfig, teamName string, start time.Time, logger *slog.Logger) (Backend, error) {
	switch cfg.Type {
	case TypeNone, "":
		return nil, nil
	case TypeMemory:
		return memory.New(cfg.Memory), nil
	case TypeSQLite:
		b, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     sqlitestorage.DumpPathFor(cfg.SQLite.OutputDir, teamName, start),
		}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case TypePostgres:
		return postgres.New(cfg.Postgres, logger), nil
	case TypeWebSocket:
		return websocket.New(websocket.Config{URL: cfg.WebSocket.URL, Secret: cfg.WebSocket.Secret}, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
