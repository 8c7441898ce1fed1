package sqlitestorage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/antarena/antclient/internal/database"
	"github.com/antarena/antclient/internal/model"
	"github.com/antarena/antclient/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryName(t *testing.T) string {
	return strings.ReplaceAll(t.Name(), "/", "_")
}

func TestDumpPathFor(t *testing.T) {
	got := DumpPathFor("recordings", "Rust_pirates", time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC))
	assert.Equal(t, filepath.Join("recordings", "antclient_Rust_pirates_20260301_123000.db"), got)
}

func TestEndMatchDumpsToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.db")
	b, err := New(Config{DumpPath: path, MemoryName: memoryName(t)}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	m := &core.Match{TeamName: "Rust_pirates", StartTime: time.Now()}
	require.NoError(t, b.StartMatch(m))
	require.NoError(t, b.RecordTurn(&core.TurnRecord{MatchID: m.ID, Number: 1}))
	require.NoError(t, b.EndMatch(core.MatchResult{MatchID: m.ID, EndTime: time.Now(), Turns: 1}))
	require.NoError(t, b.Close())

	disk, err := database.OpenSQLite(path)
	require.NoError(t, err)
	matches, err := database.ListMatches(disk)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, uint(1), matches[0].TurnCount)

	var turns int64
	require.NoError(t, disk.Model(&model.TurnSnapshot{}).Count(&turns).Error)
	assert.Equal(t, int64(1), turns)
}

func TestPeriodicDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "periodic.db")
	b, err := New(Config{DumpPath: path, DumpInterval: 20 * time.Millisecond, MemoryName: memoryName(t)}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNoDumpPath(t *testing.T) {
	b, err := New(Config{MemoryName: memoryName(t)}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	assert.NoError(t, b.Dump())
	assert.NoError(t, b.Close())
}
