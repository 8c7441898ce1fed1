package parser

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/antarena/antclient/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func sampleTurn() *core.Turn {
	t := &core.Turn{OwnTeamID: 3}
	for i := range t.Teams {
		t.Teams[i] = core.Team{
			ID:             uint8(i),
			Points:         uint16(i * 10),
			RemainingUnits: 16,
			Name:           string(nameBytes("team")),
		}
	}
	t.Teams[3].Name = string(nameBytes("Rust_pirates"))
	t.Objects = []core.WorldObject{
		{Type: 1, Owner: 3, UnitID: 0, Health: 10, Pos: core.Position{X: 100, Y: 100}},
		{Type: 2, Owner: 0, UnitID: 0, Health: 0, Pos: core.Position{X: 512, Y: 300}},
		{Type: 5, Owner: 7, UnitID: 15, Health: 15, Pos: core.Position{X: 65535, Y: 1}},
	}
	return t
}

func TestNewParser(t *testing.T) {
	p := NewParser(nil)
	require.NotNil(t, p)
	assert.Equal(t, uint64(0), p.Decoded())
}

func TestDecodeTurn_HandBuiltStream(t *testing.T) {
	var buf bytes.Buffer
	le := binary.LittleEndian

	buf.Write(le.AppendUint16(nil, 0xFFFF)) // own team id -1
	for i := 0; i < core.TeamCount; i++ {
		buf.Write(le.AppendUint16(nil, uint16(1000+i)))
		buf.Write(le.AppendUint16(nil, uint16(i)))
		name := make([]byte, core.TeamNameSize)
		copy(name, "abc")
		name[15] = 0xE9 // Latin-1 e-acute
		buf.Write(name)
	}
	buf.Write(le.AppendUint16(nil, 1))
	buf.Write([]byte{0x3A, 0x7C})
	buf.Write(le.AppendUint16(nil, 0x0102))
	buf.Write(le.AppendUint16(nil, 0x0304))

	turn, err := DecodeTurn(&buf)
	require.NoError(t, err)

	assert.Equal(t, int16(-1), turn.OwnTeamID)
	assert.Equal(t, uint16(1005), turn.Teams[5].Points)
	assert.Equal(t, uint16(5), turn.Teams[5].RemainingUnits)
	assert.Equal(t, uint8(5), turn.Teams[5].ID)
	assert.Equal(t, "abc", turn.Teams[5].DisplayName()[:3])
	assert.Equal(t, rune(0xE9), []rune(turn.Teams[5].Name)[15])

	require.Len(t, turn.Objects, 1)
	obj := turn.Objects[0]
	assert.Equal(t, uint8(3), obj.Type)
	assert.Equal(t, uint8(10), obj.Owner)
	assert.Equal(t, uint8(7), obj.UnitID)
	assert.Equal(t, uint8(12), obj.Health)
	assert.Equal(t, core.Position{X: 0x0102, Y: 0x0304}, obj.Pos)
}

func TestDecodeTurn_RoundTrip(t *testing.T) {
	want := sampleTurn()

	got, err := DecodeTurn(bytes.NewReader(EncodeTurn(want)))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeTurn_EmptyObjectTable(t *testing.T) {
	turn := sampleTurn()
	turn.Objects = []core.WorldObject{}

	got, err := DecodeTurn(bytes.NewReader(EncodeTurn(turn)))
	require.NoError(t, err)
	assert.Empty(t, got.Objects)
}

func TestDecodeTurn_Truncated(t *testing.T) {
	full := EncodeTurn(sampleTurn())

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"one byte of team id", full[:1]},
		{"inside team table", full[:2+teamRecordSize*3+7]},
		{"missing object count", full[:2+teamRecordSize*core.TeamCount+1]},
		{"inside object table", full[:len(full)-3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn, err := DecodeTurn(bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.Nil(t, turn)
			assert.True(t, errors.Is(err, ErrTruncatedStream), "got %v", err)
		})
	}
}

func TestDecodeTurn_StreamClosedBetweenTurns(t *testing.T) {
	_, err := DecodeTurn(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.ErrorIs(t, err, ErrTruncatedStream)

	// a partial snapshot is not a clean close
	full := EncodeTurn(sampleTurn())
	_, err = DecodeTurn(bytes.NewReader(full[:1]))
	assert.NotErrorIs(t, err, ErrStreamClosed)
	_, err = DecodeTurn(bytes.NewReader(full[:2+teamRecordSize]))
	assert.NotErrorIs(t, err, ErrStreamClosed)
	assert.ErrorIs(t, err, io.EOF)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestDecodeTurn_ReadErrorIsTruncation(t *testing.T) {
	_, err := DecodeTurn(failingReader{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncatedStream)
}

func TestParser_CountsDecodes(t *testing.T) {
	p := newTestParser()

	_, err := p.DecodeTurn(bytes.NewReader(EncodeTurn(sampleTurn())))
	require.NoError(t, err)
	_, err = p.DecodeTurn(bytes.NewReader([]byte{1}))
	require.Error(t, err)

	assert.Equal(t, uint64(1), p.Decoded())
	assert.Equal(t, uint64(1), p.Failed())
}

func TestNibbles_RoundTripAllBytes(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		upper, lower := SplitNibbles(b)
		assert.Less(t, upper, uint8(16))
		assert.Less(t, lower, uint8(16))
		assert.Equal(t, b, PackNibbles(upper, lower))
	}
}

func TestNibbles_ObjectBytesThroughDecoder(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		turn := &core.Turn{Objects: []core.WorldObject{decodeObject([]byte{b, b, 0, 0, 0, 0})}}

		got, err := DecodeTurn(bytes.NewReader(EncodeTurn(turn)))
		require.NoError(t, err)

		upper, lower := SplitNibbles(b)
		obj := got.Objects[0]
		assert.Equal(t, upper, obj.Type)
		assert.Equal(t, lower, obj.Owner)
		assert.Equal(t, upper, obj.UnitID)
		assert.Equal(t, lower, obj.Health)
	}
}

func TestEncodeRegister(t *testing.T) {
	frame, err := EncodeRegister("Rust_pirates")
	require.NoError(t, err)

	require.Len(t, frame, RegisterSize)
	assert.Equal(t, []byte{1, 0}, frame[:2])
	assert.Equal(t, "Rust_pirates", string(frame[2:14]))
	assert.Equal(t, []byte{0, 0, 0, 0}, frame[14:])
}

func TestEncodeRegister_TooLong(t *testing.T) {
	_, err := EncodeRegister("a_name_that_is_too_long")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTeamNameTooLong)

	frame, err := EncodeRegister("exactly16chars!!")
	require.NoError(t, err)
	assert.Len(t, frame, RegisterSize)
}
