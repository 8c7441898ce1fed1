// Package influx writes per-turn match metrics to InfluxDB, falling back to
// a gzip line-protocol file when the server cannot be reached.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/antarena/antclient/internal/config"
	"github.com/antarena/antclient/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"
)

// Buckets used by the client.
const (
	BucketMatchData   = "match_data"
	BucketPerformance = "client_performance"
)

// DefaultBucketNames are the buckets created on connect.
var DefaultBucketNames = []string{
	BucketMatchData,
	BucketPerformance,
}

// ErrDisabled is returned by Connect when influx.enabled is false.
var ErrDisabled = errors.New("influxdb is disabled")

// Manager handles InfluxDB connections and writes.
type Manager struct {
	cfg          config.InfluxConfig
	Client       influxdb2.Client
	Writers      map[string]influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	backupFile   *os.File
	IsValid      bool
	BucketNames  []string
	Logger       zerolog.Logger
	BackupPath   string

	mu sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		cfg:         cfg,
		Writers:     make(map[string]influxdb2_api.WriteAPI),
		BucketNames: DefaultBucketNames,
		Logger:      log,
		BackupPath:  backupPath,
	}
}

// URL returns the server address built from the settings.
func (m *Manager) URL() string {
	return fmt.Sprintf("%s://%s:%s", m.cfg.Protocol, m.cfg.Host, m.cfg.Port)
}

// Connect establishes a connection to InfluxDB. When the server does not
// answer, points go to the backup file instead and Connect still succeeds.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.URL(),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	running, err := m.Client.Ping(pingCtx)
	cancel()

	if err != nil || !running {
		m.IsValid = false
		m.Logger.Info().Str("backupPath", m.BackupPath).
			Msg("Failed to initialize InfluxDB client, writing to backup file")
		return m.openBackup()
	}

	m.IsValid = true
	if err := m.setupOrganizationAndBuckets(ctx); err != nil {
		return err
	}
	m.CreateWriters()
	m.Logger.Info().Str("url", m.URL()).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.BackupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBuckets(ctx context.Context) error {
	orgName := m.cfg.Org

	// ensure org exists
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// ensure buckets exist with 90 day retention
	for _, bucket := range m.BucketNames {
		if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, bucket); err == nil {
			continue
		}
		m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
			return err
		}
	}

	return nil
}

// CreateWriters creates write APIs for all configured buckets.
func (m *Manager) CreateWriters() {
	for _, bucket := range m.BucketNames {
		m.Logger.Trace().Str("bucket", bucket).Msg("Creating InfluxDB writer")
		m.Writers[bucket] = m.Client.WriteAPI(m.cfg.Org, bucket)

		errorsCh := m.Writers[bucket].Errors()
		go func(bucketName string, errorsCh <-chan error) {
			for writeErr := range errorsCh {
				m.Logger.Error().Err(writeErr).Str("bucket", bucketName).
					Msg("Error sending data to InfluxDB")
			}
		}(bucket, errorsCh)
	}

	m.Logger.Debug().Msg("InfluxDB writers initialized")
}

// WritePoint writes a point to InfluxDB or backup file.
func (m *Manager) WritePoint(bucket string, point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsValid {
		w, ok := m.Writers[bucket]
		if !ok {
			return fmt.Errorf("influxDB bucket '%s' not registered", bucket)
		}
		w.WritePoint(point)
		return nil
	}

	if m.BackupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// RecordTurn writes the points of one turn.
func (m *Manager) RecordTurn(match core.Match, r *core.TurnRecord) error {
	var errs []error
	for _, p := range TurnPoints(match, r) {
		errs = append(errs, m.WritePoint(BucketMatchData, p))
	}
	errs = append(errs, m.WritePoint(BucketPerformance, TimingPoint(match, r)))
	return errors.Join(errs...)
}

// Close flushes pending writes and closes the client and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range m.Writers {
		w.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}

	var err error
	if m.BackupWriter != nil {
		err = errors.Join(m.BackupWriter.Close(), m.backupFile.Close())
		m.BackupWriter = nil
	}
	return err
}

// matchTags adds the match identity; empty values are not valid tags.
func matchTags(p *influxdb2_write.Point, match core.Match) *influxdb2_write.Point {
	p.AddTag("match", strconv.FormatUint(uint64(match.ID), 10))
	if match.TeamName != "" {
		p.AddTag("team", match.TeamName)
	}
	if match.Tag != "" {
		p.AddTag("tag", match.Tag)
	}
	return p
}

// TurnPoints builds one team_score point per team plus an own_units point.
func TurnPoints(match core.Match, r *core.TurnRecord) []*influxdb2_write.Point {
	ts := r.ReceivedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	points := make([]*influxdb2_write.Point, 0, len(r.Teams)+1)
	for i, t := range r.Teams {
		p := influxdb2_write.NewPointWithMeasurement("team_score").
			AddTag("team_id", strconv.Itoa(i)).
			AddTag("own", strconv.FormatBool(int(r.OwnTeamID) == i)).
			AddField("points", int(t.Points)).
			AddField("remaining_units", int(t.RemainingUnits)).
			AddField("turn", int(r.Number)).
			SetTime(ts)
		if name := t.DisplayName(); name != "" {
			p.AddTag("team_name", name)
		}
		points = append(points, matchTags(p, match))
	}

	own := influxdb2_write.NewPointWithMeasurement("own_units").
		AddField("alive", r.AliveUnits).
		AddField("objects", r.ObjectCount).
		AddField("points", int(r.OwnPoints())).
		AddField("turn", int(r.Number)).
		SetTime(ts)
	return append(points, matchTags(own, match))
}

// TimingPoint records how long decoding and deciding took.
func TimingPoint(match core.Match, r *core.TurnRecord) *influxdb2_write.Point {
	ts := r.ReceivedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	p := influxdb2_write.NewPointWithMeasurement("turn_timing").
		AddField("decode_ms", float64(r.DecodeDuration.Microseconds())/1000).
		AddField("decide_ms", float64(r.DecideDuration.Microseconds())/1000).
		AddField("turn", int(r.Number)).
		SetTime(ts)
	return matchTags(p, match)
}
