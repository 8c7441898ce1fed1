// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/antarena/antclient/internal/model"
	"github.com/antarena/antclient/pkg/core"
	"gorm.io/datatypes"
)

// toJSON marshals v for a jsonb column, falling back to an empty array.
func toJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// rolesToJSON stores role names rather than numeric codes so the column is
// readable without this package.
func rolesToJSON(rt core.RoleTable) datatypes.JSON {
	names := make([]string, len(rt))
	for i, r := range rt {
		names[i] = r.String()
	}
	return toJSON(names)
}

// CoreToMatch converts a core.Match to a GORM model.Match.
func CoreToMatch(m core.Match) model.Match {
	out := model.Match{
		TeamName:      m.TeamName,
		Server:        m.Server,
		StartTime:     m.StartTime,
		OwnTeamID:     -1,
		Roles:         rolesToJSON(m.Roles),
		ClientVersion: m.ClientVersion,
		Tag:           m.Tag,
	}
	out.ID = m.ID
	return out
}

// CoreToTurnSnapshot converts a core.TurnRecord to a GORM model.TurnSnapshot.
func CoreToTurnSnapshot(r core.TurnRecord) model.TurnSnapshot {
	commands := make([]int, len(r.Commands))
	for i, c := range r.Commands {
		commands[i] = int(c)
	}
	return model.TurnSnapshot{
		MatchID:     r.MatchID,
		Turn:        r.Number,
		ReceivedAt:  r.ReceivedAt,
		OwnTeamID:   r.OwnTeamID,
		OwnPoints:   r.OwnPoints(),
		ObjectCount: uint16(r.ObjectCount),
		AliveUnits:  uint8(r.AliveUnits),
		Commands:    toJSON(commands),
		Rules:       toJSON(r.Rules),
		DecodeMs:    float32(r.DecodeDuration.Microseconds()) / 1000,
		DecideMs:    float32(r.DecideDuration.Microseconds()) / 1000,
	}
}

// CoreToTeamScores converts the team table of a turn to one row per team.
// The row key is the table position, which is the team id on the wire.
func CoreToTeamScores(r core.TurnRecord) []model.TeamScore {
	out := make([]model.TeamScore, 0, len(r.Teams))
	for i, t := range r.Teams {
		out = append(out, model.TeamScore{
			MatchID:        r.MatchID,
			Turn:           r.Number,
			TeamID:         uint8(i),
			Name:           t.DisplayName(),
			Points:         t.Points,
			RemainingUnits: t.RemainingUnits,
		})
	}
	return out
}
