package parser

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/antarena/antclient/pkg/core"
)

// ClientTypePlayer is the client type sent in the registration frame.
const ClientTypePlayer uint16 = 1

// RegisterSize is the length of the registration frame.
const RegisterSize = 2 + core.TeamNameSize

// ErrTeamNameTooLong is returned when a team name does not fit the 16-byte wire field.
var ErrTeamNameTooLong = errors.New("team name too long")

// EncodeRegister builds the frame a client sends right after connecting:
// the client type followed by the team name, zero-padded to 16 bytes.
func EncodeRegister(teamName string) ([]byte, error) {
	if len(teamName) > core.TeamNameSize {
		return nil, fmt.Errorf("%w: %q is %d bytes, max %d", ErrTeamNameTooLong, teamName, len(teamName), core.TeamNameSize)
	}
	out := make([]byte, RegisterSize)
	binary.LittleEndian.PutUint16(out[0:2], ClientTypePlayer)
	copy(out[2:], teamName)
	return out, nil
}

// EncodeTurn serializes a snapshot in the server's wire format.
// DecodeTurn(EncodeTurn(t)) reproduces t for any nibble-sized object fields.
func EncodeTurn(t *core.Turn) []byte {
	out := make([]byte, 0, 2+core.TeamCount*teamRecordSize+2+len(t.Objects)*objectRecordSize)

	out = binary.LittleEndian.AppendUint16(out, uint16(t.OwnTeamID))
	for _, team := range t.Teams {
		out = binary.LittleEndian.AppendUint16(out, team.Points)
		out = binary.LittleEndian.AppendUint16(out, team.RemainingUnits)
		out = append(out, nameBytes(team.Name)...)
	}

	out = binary.LittleEndian.AppendUint16(out, uint16(len(t.Objects)))
	for _, o := range t.Objects {
		out = append(out, PackNibbles(o.Type, o.Owner), PackNibbles(o.UnitID, o.Health))
		out = binary.LittleEndian.AppendUint16(out, o.Pos.X)
		out = binary.LittleEndian.AppendUint16(out, o.Pos.Y)
	}
	return out
}

// nameBytes converts a Latin-1 name back to its fixed-width wire form.
func nameBytes(name string) []byte {
	b := make([]byte, core.TeamNameSize)
	i := 0
	for _, r := range name {
		if i == core.TeamNameSize {
			break
		}
		if r > 0xFF {
			r = '?'
		}
		b[i] = byte(r)
		i++
	}
	return b
}
