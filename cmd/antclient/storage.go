package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/antarena/antclient/internal/config"
	"github.com/antarena/antclient/internal/storage"
)

func initStorage(teamName string, start time.Time, logger *slog.Logger) (storage.Backend, error) {
	storageCfg := config.GetStorageConfig()
	if storageCfg.Type == storage.TypeWebSocket && storageCfg.WebSocket.URL == "" {
		storageCfg.WebSocket.URL = httpToWS(config.GetAPIConfig().ServerURL) + "/ingest"
		if storageCfg.WebSocket.Secret == "" {
			storageCfg.WebSocket.Secret = config.GetAPIConfig().APIKey
		}
	}

	backend, err := storage.NewBackend(storageCfg, teamName, start, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}
	if backend == nil {
		logger.Info("Recording disabled")
		return nil, nil
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", storageCfg.Type, err)
	}
	logger.Info("Storage backend initialized", "type", storageCfg.Type)
	return backend, nil
}

// httpToWS converts an HTTP(S) URL to a WebSocket URL.
func httpToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
