package parser

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/antarena/antclient/pkg/core"
)

// ErrTruncatedStream is returned when the byte source ends (or fails) before
// a field could be read completely. The current turn is lost; the caller
// decides whether to drop the connection.
var ErrTruncatedStream = errors.New("truncated stream")

// ErrStreamClosed marks a stream that ended cleanly between two snapshots.
// Errors carrying it also match ErrTruncatedStream.
var ErrStreamClosed = errors.New("stream closed between turns")

const (
	teamRecordSize   = 2 + 2 + core.TeamNameSize
	objectRecordSize = 1 + 1 + 2 + 2
)

// decoder reads fixed-size fields from r into a scratch buffer.
type decoder struct {
	r   io.Reader
	buf [teamRecordSize]byte
}

func (d *decoder) read(n int, field string) ([]byte, error) {
	b := d.buf[:n]
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrTruncatedStream, field, err)
	}
	return b, nil
}

// DecodeTurn reads one complete snapshot from r.
// All integers are little-endian. Any short read yields ErrTruncatedStream;
// nothing is retried.
func DecodeTurn(r io.Reader) (*core.Turn, error) {
	d := &decoder{r: r}
	t := &core.Turn{}

	b, err := d.read(2, "own team id")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrStreamClosed, err)
		}
		return nil, err
	}
	t.OwnTeamID = int16(binary.LittleEndian.Uint16(b))

	for i := range t.Teams {
		b, err = d.read(teamRecordSize, fmt.Sprintf("team %d", i))
		if err != nil {
			return nil, err
		}
		t.Teams[i] = core.Team{
			ID:             uint8(i),
			Points:         binary.LittleEndian.Uint16(b[0:2]),
			RemainingUnits: binary.LittleEndian.Uint16(b[2:4]),
			Name:           latin1(b[4:teamRecordSize]),
		}
	}

	b, err = d.read(2, "object count")
	if err != nil {
		return nil, err
	}
	count := int(binary.LittleEndian.Uint16(b))

	t.Objects = make([]core.WorldObject, 0, count)
	for i := 0; i < count; i++ {
		b, err = d.read(objectRecordSize, fmt.Sprintf("object %d/%d", i, count))
		if err != nil {
			return nil, err
		}
		t.Objects = append(t.Objects, decodeObject(b))
	}

	return t, nil
}

func decodeObject(b []byte) core.WorldObject {
	typ, owner := SplitNibbles(b[0])
	id, health := SplitNibbles(b[1])
	return core.WorldObject{
		Type:   typ,
		Owner:  owner,
		UnitID: id,
		Health: health,
		Pos: core.Position{
			X: binary.LittleEndian.Uint16(b[2:4]),
			Y: binary.LittleEndian.Uint16(b[4:6]),
		},
	}
}

// latin1 maps every byte to the rune of the same value. No UTF-8 validation.
func latin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
