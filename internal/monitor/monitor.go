package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/antarena/antclient/internal/client"
	"github.com/antarena/antclient/internal/match"
)

// StatusFileName is written in the status directory.
const StatusFileName = "status.json"

// DefaultInterval is how often the status file is rewritten.
const DefaultInterval = time.Second

// StatsProvider exposes the turn loop statistics. *client.Client implements it.
type StatsProvider interface {
	Stats() client.Stats
}

// WriterStats exposes the storage writer's health. *worker.Manager implements it.
type WriterStats interface {
	GetLastDBWriteDuration() time.Duration
	DroppedTurns() uint64
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger       *slog.Logger
	MatchContext *match.Context
	// Client and Writer are optional.
	Client    StatsProvider
	Writer    WriterStats
	StatusDir string
	Interval  time.Duration
}

// Status is the content of the status file.
type Status struct {
	Time                time.Time       `json:"time"`
	Active              bool            `json:"active"`
	Match               *match.Snapshot `json:"match,omitempty"`
	Client              *client.Stats   `json:"client,omitempty"`
	LastWriteDurationMs float32         `json:"lastWriteDurationMs"`
	DroppedTurns        uint64          `json:"droppedTurns"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	log       *slog.Logger
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.MatchContext == nil {
		deps.MatchContext = match.NewContext()
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		deps:     deps,
		log:      log.With("component", "monitor"),
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// StatusPath returns the full path of the status file.
func (s *Service) StatusPath() string {
	return filepath.Join(s.deps.StatusDir, StatusFileName)
}

// GetStatus returns the current program status.
func (s *Service) GetStatus() Status {
	st := Status{Time: time.Now()}

	if snap, active := s.deps.MatchContext.Snapshot(); active {
		st.Active = true
		st.Match = &snap
	}
	if s.deps.Client != nil {
		stats := s.deps.Client.Stats()
		st.Client = &stats
	}
	if s.deps.Writer != nil {
		st.LastWriteDurationMs = float32(s.deps.Writer.GetLastDBWriteDuration().Microseconds()) / 1000
		st.DroppedTurns = s.deps.Writer.DroppedTurns()
	}
	return st
}

// WriteStatus writes the current status to the status file.
func (s *Service) WriteStatus() error {
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	// readers only ever see a complete file
	tmp := s.StatusPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	return os.Rename(tmp, s.StatusPath())
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(s.deps.StatusDir, 0755); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create status directory: %w", err)
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)

		s.log.Debug("Starting status monitor", "path", s.StatusPath(), "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				// final state for whoever reads the file after exit
				if err := s.WriteStatus(); err != nil {
					s.log.Error("Error writing status file", "error", err)
				}
				return
			case <-ticker.C:
				if err := s.WriteStatus(); err != nil {
					s.log.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the last write.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	s.isRunning = false
	done := s.done
	s.mu.Unlock()
	<-done
}
