package convert

import (
	"encoding/json"
	"time"

	"github.com/antarena/antclient/internal/model"
	"github.com/antarena/antclient/pkg/core"
)

var roleByName = map[string]core.Role{
	core.RoleGatherer.String():   core.RoleGatherer,
	core.RoleOffensive.String():  core.RoleOffensive,
	core.RoleWasteMover.String(): core.RoleWasteMover,
}

// MatchToCore converts a GORM Match to a core.Match.
// Unknown role names decode as RoleNone.
func MatchToCore(m model.Match) core.Match {
	var names []string
	if len(m.Roles) > 0 {
		_ = json.Unmarshal(m.Roles, &names)
	}

	out := core.Match{
		ID:            m.ID,
		TeamName:      m.TeamName,
		Server:        m.Server,
		StartTime:     m.StartTime,
		ClientVersion: m.ClientVersion,
		Tag:           m.Tag,
	}
	for i := 0; i < len(names) && i < core.UnitsPerTeam; i++ {
		out.Roles[i] = roleByName[names[i]]
	}
	return out
}

// MatchResultToCore returns the stored end of a match, or nil while the
// match has no end time.
func MatchResultToCore(m model.Match) *core.MatchResult {
	if m.EndTime == nil {
		return nil
	}
	return &core.MatchResult{
		MatchID: m.ID,
		EndTime: *m.EndTime,
		Turns:   m.TurnCount,
		Reason:  m.EndReason,
	}
}

// TurnSnapshotToCore converts a GORM TurnSnapshot and its team rows back to
// a core.TurnRecord. Teams missing from scores keep their zero value apart
// from the id.
func TurnSnapshotToCore(s model.TurnSnapshot, scores []model.TeamScore) core.TurnRecord {
	r := core.TurnRecord{
		MatchID:        s.MatchID,
		Number:         s.Turn,
		OwnTeamID:      s.OwnTeamID,
		ObjectCount:    int(s.ObjectCount),
		AliveUnits:     int(s.AliveUnits),
		DecodeDuration: msToDuration(s.DecodeMs),
		DecideDuration: msToDuration(s.DecideMs),
		ReceivedAt:     s.ReceivedAt,
	}

	var commands []int
	if len(s.Commands) > 0 {
		_ = json.Unmarshal(s.Commands, &commands)
	}
	for i := 0; i < len(commands) && i < core.CommandSize; i++ {
		r.Commands[i] = byte(commands[i])
	}

	var rules []string
	if len(s.Rules) > 0 {
		_ = json.Unmarshal(s.Rules, &rules)
	}
	copy(r.Rules[:], rules)

	for i := range r.Teams {
		r.Teams[i].ID = uint8(i)
	}
	for _, sc := range scores {
		if int(sc.TeamID) >= core.TeamCount {
			continue
		}
		r.Teams[sc.TeamID] = core.Team{
			ID:             sc.TeamID,
			Points:         sc.Points,
			RemainingUnits: sc.RemainingUnits,
			Name:           sc.Name,
		}
	}
	return r
}

func msToDuration(ms float32) time.Duration {
	return time.Duration(float64(ms) * float64(time.Millisecond))
}
