// Package gormstorage implements the storage.Backend interface on top of any
// GORM dialect. Turns are queued and written in batches by a background
// goroutine so that a slow database never backs up the dispatcher.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/antarena/antclient/internal/database"
	"github.com/antarena/antclient/internal/model"
	"github.com/antarena/antclient/internal/model/convert"
	"github.com/antarena/antclient/internal/queue"
	"github.com/antarena/antclient/pkg/core"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// DefaultFlushInterval is how often queued turns are written.
	DefaultFlushInterval = 2 * time.Second
	// DefaultQueueLimit bounds each write queue; the oldest turns go first.
	DefaultQueueLimit = 10000
)

// ErrNoDatabase is returned by Init when no *gorm.DB was supplied.
var ErrNoDatabase = errors.New("no database connection")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
	QueueLimit    int
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Turns  *queue.Queue[model.TurnSnapshot]
	Scores *queue.Queue[model.TeamScore]
}

func newQueues(limit int) *queues {
	return &queues{
		Turns:  queue.NewBounded[model.TurnSnapshot](limit),
		Scores: queue.NewBounded[model.TeamScore](limit * core.TeamCount),
	}
}

// Backend implements storage.Backend with queue-based batch writes.
type Backend struct {
	deps    Dependencies
	log     *slog.Logger
	queues  *queues
	matchID atomic.Uint64

	// serializes flushes between the writer goroutine and EndMatch/Close
	flushMu   sync.Mutex
	lastWrite atomic.Int64 // nanoseconds

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	if deps.QueueLimit <= 0 {
		deps.QueueLimit = DefaultQueueLimit
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		deps:   deps,
		log:    log.With("component", "storage.gorm"),
		queues: newQueues(deps.QueueLimit),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}

	b.log.Info("Migrating schema", "dialect", b.deps.DB.Name())
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.wg.Add(1)
	go b.writeLoop()
	return nil
}

// Close stops the writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
		}
	})
	b.wg.Wait()
	if b.deps.DB == nil {
		return nil
	}
	return b.Flush()
}

// StartMatch inserts the match row synchronously so its id is known before
// the first turn is queued.
func (b *Backend) StartMatch(m *core.Match) error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}

	row := convert.CoreToMatch(*m)
	row.ID = 0
	if err := b.deps.DB.Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert new match: %w", err)
	}

	m.ID = row.ID
	b.matchID.Store(uint64(row.ID))
	return nil
}

// RecordTurn converts the turn and pushes it to the write queues.
func (b *Backend) RecordTurn(r *core.TurnRecord) error {
	rec := *r
	if rec.MatchID == 0 {
		rec.MatchID = uint(b.matchID.Load())
	}

	if dropped := b.queues.Turns.Push(convert.CoreToTurnSnapshot(rec)); dropped > 0 {
		b.log.Warn("Turn queue full, dropped oldest", "dropped", dropped)
	}
	b.queues.Scores.Push(convert.CoreToTeamScores(rec)...)
	return nil
}

// EndMatch writes the remaining turns and stamps the match row.
func (b *Backend) EndMatch(result core.MatchResult) error {
	if b.deps.DB == nil {
		return ErrNoDatabase
	}
	if err := b.Flush(); err != nil {
		return err
	}

	id := result.MatchID
	if id == 0 {
		id = uint(b.matchID.Load())
	}
	if id == 0 {
		return nil
	}

	var final model.TurnSnapshot
	err := b.deps.DB.Where("match_id = ?", id).Order("turn DESC").Limit(1).Find(&final).Error
	if err != nil {
		return fmt.Errorf("failed to read final turn: %w", err)
	}

	end := result.EndTime
	updates := map[string]any{
		"end_time":     &end,
		"end_reason":   result.Reason,
		"turn_count":   result.Turns,
		"final_points": final.OwnPoints,
		"own_team_id":  -1,
	}
	if final.MatchID != 0 {
		updates["own_team_id"] = final.OwnTeamID
	}
	if err := b.deps.DB.Model(&model.Match{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	return nil
}

// Flush writes all queued rows now.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	start := time.Now()
	errTurns := writeQueue(b.deps.DB, b.queues.Turns, "turns", b.log)
	errScores := writeQueue(b.deps.DB, b.queues.Scores, "team scores", b.log)
	b.lastWrite.Store(int64(time.Since(start)))

	return errors.Join(errTurns, errScores)
}

// Performance samples the writer's health for the current match.
func (b *Backend) Performance() model.ClientPerformance {
	return model.ClientPerformance{
		Time:                time.Now(),
		MatchID:             uint(b.matchID.Load()),
		TurnQueue:           uint16(min(b.queues.Turns.Len(), 65535)),
		ScoreQueue:          uint16(min(b.queues.Scores.Len(), 65535)),
		DroppedTurns:        b.queues.Turns.Dropped(),
		LastWriteDurationMs: float32(time.Duration(b.lastWrite.Load()).Microseconds()) / 1000,
	}
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items go back on the queue for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger) error {
	if q.Empty() {
		return nil
	}

	items := q.GetAndEmpty()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(&items).Error
	})
	if err != nil {
		log.Error("Error writing queue", "queue", name, "count", len(items), "error", err)
		q.Push(items...)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// writeLoop periodically drains the queues into the DB and records a
// ClientPerformance sample while a match is active.
func (b *Backend) writeLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				continue
			}
			if b.matchID.Load() == 0 {
				continue
			}
			perf := b.Performance()
			if err := b.deps.DB.Omit(clause.Associations).Create(&perf).Error; err != nil {
				b.log.Warn("Failed to write performance sample", "error", err)
			}
		}
	}
}
