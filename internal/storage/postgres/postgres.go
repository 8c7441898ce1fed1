// Package postgres implements the storage.Backend interface on PostgreSQL.
// All recording logic lives in the GORM backend; this package only owns the
// connection.
package postgres

import (
	"fmt"
	"log/slog"

	"github.com/antarena/antclient/internal/config"
	"github.com/antarena/antclient/internal/database"
	"github.com/antarena/antclient/internal/model"
	gormstorage "github.com/antarena/antclient/internal/storage/gorm"
	"github.com/antarena/antclient/pkg/core"
	"gorm.io/gorm"
)

// Opener connects to the database. Tests substitute their own.
type Opener func(cfg config.PostgresConfig) (*gorm.DB, error)

// Backend implements storage.Backend using GORM/PostgreSQL.
type Backend struct {
	cfg    config.PostgresConfig
	log    *slog.Logger
	open   Opener
	inner  *gormstorage.Backend
	closed bool
}

// New creates a new Postgres storage backend. The connection is made in Init.
func New(cfg config.PostgresConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		cfg:  cfg,
		log:  logger,
		open: database.OpenPostgres,
	}
}

// WithOpener replaces the connection function.
func (b *Backend) WithOpener(open Opener) *Backend {
	b.open = open
	return b
}

// Init connects, migrates the schema and starts the writer.
func (b *Backend) Init() error {
	db, err := b.open(b.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	b.log.Info("Connected to database", "host", b.cfg.Host, "database", b.cfg.Database)

	b.inner = gormstorage.New(gormstorage.Dependencies{DB: db, Logger: b.log})
	return b.inner.Init()
}

// Close flushes pending turns and closes the connection pool.
func (b *Backend) Close() error {
	if b.inner == nil || b.closed {
		return nil
	}
	b.closed = true

	err := b.inner.Close()
	if sqlDB, dbErr := b.inner.DB().DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	return err
}

func (b *Backend) StartMatch(m *core.Match) error {
	if b.inner == nil {
		return gormstorage.ErrNoDatabase
	}
	return b.inner.StartMatch(m)
}

func (b *Backend) RecordTurn(r *core.TurnRecord) error {
	if b.inner == nil {
		return gormstorage.ErrNoDatabase
	}
	return b.inner.RecordTurn(r)
}

func (b *Backend) EndMatch(result core.MatchResult) error {
	if b.inner == nil {
		return gormstorage.ErrNoDatabase
	}
	return b.inner.EndMatch(result)
}

// Performance reports the writer's queue state; zero before Init.
func (b *Backend) Performance() model.ClientPerformance {
	if b.inner == nil {
		return model.ClientPerformance{}
	}
	return b.inner.Performance()
}
