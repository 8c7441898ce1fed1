package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewZerolog_WritesConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, "debug")

	log.Debug().Str("bucket", "match_data").Msg("connected")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "connected")
	assert.Contains(t, out, "bucket=match_data")
}

func TestNewZerolog_Level(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"INFO", false, true},
		{"error", false, false},
		{"bogus", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewZerolog(&buf, tt.level)

			log.Debug().Msg("debug line")
			log.Info().Msg("info line")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
		})
	}
}
