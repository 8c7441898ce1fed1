package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	v1 "github.com/antarena/antclient/internal/storage/memory/export/v1"
	"github.com/antarena/antclient/pkg/core"
)

// ExportFileName builds the replay file name for a match.
func ExportFileName(m core.Match, compress bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimRight(m.TeamName, "\x00 "))
	if name == "" {
		name = "unnamed"
	}

	filename := fmt.Sprintf("%s_%s_%d.json", name, m.StartTime.Format("20060102_150405"), m.ID)
	if compress {
		filename += ".gz"
	}
	return filename
}

// WriteExport writes data as JSON to path, gzip-compressed when compress is set.
func WriteExport(path string, compress bool, data v1.Export) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if compress {
		return writeGzipJSON(path, data)
	}
	return writeJSON(path, data)
}

// exportJSON writes the match data to the output directory
func (b *Backend) exportJSON() error {
	export := v1.Build(&v1.MatchData{
		Match:  *b.match,
		Result: b.result,
		Turns:  b.turns,
	})

	outputPath := filepath.Join(b.cfg.OutputDir, ExportFileName(*b.match, b.cfg.CompressOutput))
	if err := WriteExport(outputPath, b.cfg.CompressOutput, export); err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}

// GetExportedFilePath returns the path of the last export, or "".
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last exported match for upload.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.match == nil {
		return core.UploadMetadata{}
	}

	meta := core.UploadMetadata{
		TeamName: strings.TrimRight(b.match.TeamName, "\x00 "),
		Server:   b.match.Server,
		Tag:      b.match.Tag,
	}
	if n := len(b.turns); n > 0 {
		meta.TurnCount = b.turns[n-1].Number
	}
	if b.result != nil {
		meta.MatchDuration = b.result.EndTime.Sub(b.match.StartTime).Round(time.Millisecond).Seconds()
	}
	return meta
}
