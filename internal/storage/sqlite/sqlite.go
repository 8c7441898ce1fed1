// Package sqlitestorage implements the storage.Backend interface using an in-memory
// SQLite database with periodic disk dumps via VACUUM INTO.
// It wraps the GORM backend; the only SQLite-specific concerns are creating
// the in-memory DB and dumping it to disk.
package sqlitestorage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/antarena/antclient/internal/database"
	gormstorage "github.com/antarena/antclient/internal/storage/gorm"
	"github.com/antarena/antclient/pkg/core"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	DumpInterval time.Duration
	DumpPath     string // Path for periodic VACUUM INTO dumps
	// MemoryName names the in-memory database; defaults to "antclient"
	MemoryName string
}

// DumpPathFor returns the dump file for a recording session.
func DumpPathFor(outputDir, teamName string, start time.Time) string {
	return filepath.Join(outputDir, fmt.Sprintf("antclient_%s_%s.db", teamName, start.Format("20060102_150405")))
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg      Config
	log      *slog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new SQLite storage backend.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if cfg.MemoryName == "" {
		cfg.MemoryName = "antclient"
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := database.OpenSQLite(database.MemoryDSN(cfg.MemoryName))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}

	return &Backend{
		Backend:  gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}),
		cfg:      cfg,
		log:      logger.With("component", "storage.sqlite"),
		stopChan: make(chan struct{}),
	}, nil
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 {
		b.wg.Add(1)
		go b.dumpLoop()
	}

	return nil
}

// EndMatch finalizes the match and dumps the database so the recording is
// on disk without waiting for the next tick.
func (b *Backend) EndMatch(result core.MatchResult) error {
	if err := b.Backend.EndMatch(result); err != nil {
		return err
	}
	return b.Dump()
}

// Close stops the dump goroutine, flushes the GORM backend, writes a final
// dump and closes the database.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() { close(b.stopChan) })
	b.wg.Wait()

	err := b.Backend.Close()
	if dumpErr := b.Dump(); dumpErr != nil && err == nil {
		err = dumpErr
	}
	if sqlDB, dbErr := b.DB().DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	return err
}

// Dump writes the database to DumpPath now. Without a DumpPath it does nothing.
func (b *Backend) Dump() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	start := time.Now()
	if err := database.DumpMemoryDBToDisk(b.DB(), b.cfg.DumpPath); err != nil {
		b.log.Error("Error dumping to disk", "error", err)
		return err
	}
	b.log.Debug("Dumped to disk", "path", b.cfg.DumpPath, "duration", time.Since(start))
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			_ = b.Dump()
		}
	}
}
