// Package database opens the SQL stores used for match recordings and reads
// recorded matches back for the report tool.
package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antarena/antclient/internal/config"
	"github.com/antarena/antclient/internal/model"
	"github.com/antarena/antclient/internal/model/convert"
	"github.com/antarena/antclient/pkg/core"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrMatchNotFound is returned by LoadMatch for an unknown id.
var ErrMatchNotFound = errors.New("match not found")

// PostgresDSN builds a libpq connection string from the storage settings.
func PostgresDSN(cfg config.PostgresConfig) string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
	)
}

// OpenPostgres connects to Postgres and validates the connection.
func OpenPostgres(cfg config.PostgresConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  PostgresDSN(cfg),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to validate connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	return db, nil
}

// MemoryDSN names a shared in-memory SQLite database. Connections opened
// with the same name inside one process see the same data.
func MemoryDSN(name string) string {
	return "file:" + name + "?mode=memory&cache=shared"
}

// OpenSQLite opens a SQLite database. path may be a file path or a DSN from
// MemoryDSN; an empty path uses the default shared in-memory database.
func OpenSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		path = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// one writer; also keeps an in-memory database alive between statements
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql interface: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}

// Open picks the driver from the file name: *.db files are SQLite, anything
// else is treated as a Postgres database name on the configured server.
func Open(target string, pg config.PostgresConfig) (*gorm.DB, error) {
	if strings.HasSuffix(target, ".db") {
		if _, err := os.Stat(target); err != nil {
			return nil, err
		}
		return OpenSQLite(target)
	}
	if target != "" {
		pg.Database = target
	}
	return OpenPostgres(pg)
}

// Migrate creates or updates the recording tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// DumpMemoryDBToDisk vacuums the in-memory database to a disk file.
func DumpMemoryDBToDisk(db *gorm.DB, sqliteFilePath string) error {
	if sqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	if err := os.MkdirAll(filepath.Dir(sqliteFilePath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// VACUUM INTO refuses to overwrite
	if _, err := os.Stat(sqliteFilePath); err == nil {
		if err := os.Remove(sqliteFilePath); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	quoted := strings.ReplaceAll(sqliteFilePath, "'", "''")
	if err := db.Exec("VACUUM INTO '" + quoted + "';").Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}
	return nil
}

// GetBackupDBPaths returns paths to all .db files in the given directory.
func GetBackupDBPaths(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dbPaths []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".db") {
			dbPaths = append(dbPaths, filepath.Join(dir, file.Name()))
		}
	}
	return dbPaths, nil
}

// ListMatches returns all recorded matches, newest first.
func ListMatches(db *gorm.DB) ([]model.Match, error) {
	var matches []model.Match
	if err := db.Order("start_time DESC").Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// LoadMatch reads one match with all of its turns, in turn order.
func LoadMatch(db *gorm.DB, id uint) (model.Match, []core.TurnRecord, error) {
	var m model.Match
	if err := db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return m, nil, fmt.Errorf("%w: %d", ErrMatchNotFound, id)
		}
		return m, nil, err
	}

	var snapshots []model.TurnSnapshot
	if err := db.Where("match_id = ?", id).Order("turn").Find(&snapshots).Error; err != nil {
		return m, nil, fmt.Errorf("failed to load turns: %w", err)
	}

	var scores []model.TeamScore
	if err := db.Where("match_id = ?", id).Order("turn, team_id").Find(&scores).Error; err != nil {
		return m, nil, fmt.Errorf("failed to load team scores: %w", err)
	}
	byTurn := make(map[uint][]model.TeamScore, len(snapshots))
	for _, sc := range scores {
		byTurn[sc.Turn] = append(byTurn[sc.Turn], sc)
	}

	turns := make([]core.TurnRecord, 0, len(snapshots))
	for _, s := range snapshots {
		turns = append(turns, convert.TurnSnapshotToCore(s, byTurn[s.Turn]))
	}
	return m, turns, nil
}
