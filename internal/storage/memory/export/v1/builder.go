package v1

import (
	"math"
	"time"

	"github.com/antarena/antclient/pkg/core"
)

// MatchData contains all the data needed to build an export
type MatchData struct {
	Match  core.Match
	Result *core.MatchResult
	Turns  []core.TurnRecord
}

// Build creates an Export from the match data
func Build(data *MatchData) Export {
	export := Export{
		FormatVersion: FormatVersion,
		ClientVersion: data.Match.ClientVersion,
		TeamName:      data.Match.TeamName,
		Server:        data.Match.Server,
		Tags:          data.Match.Tag,
		StartTime:     formatTime(data.Match.StartTime),
		OwnTeamID:     -1,
		Roles:         make([]string, 0, core.UnitsPerTeam),
		Teams:         make([]Team, 0, core.TeamCount),
		Turns:         make([]Turn, 0, len(data.Turns)),
	}

	for _, r := range data.Match.Roles {
		export.Roles = append(export.Roles, r.String())
	}

	if data.Result != nil {
		export.EndTime = formatTime(data.Result.EndTime)
		export.EndReason = data.Result.Reason
	}

	for i := range data.Turns {
		rec := &data.Turns[i]
		export.Turns = append(export.Turns, buildTurn(rec, data.Match.StartTime))
		if rec.Number > export.EndTurn {
			export.EndTurn = rec.Number
		}
	}

	if n := len(data.Turns); n > 0 {
		last := &data.Turns[n-1]
		export.OwnTeamID = last.OwnTeamID
		for _, t := range last.Teams {
			export.Teams = append(export.Teams, Team{
				ID:             t.ID,
				Name:           t.DisplayName(),
				Points:         t.Points,
				RemainingUnits: t.RemainingUnits,
			})
		}
	}

	return export
}

func buildTurn(rec *core.TurnRecord, start time.Time) Turn {
	turn := Turn{
		Number:     rec.Number,
		Points:     make([]uint16, len(rec.Teams)),
		Remaining:  make([]uint16, len(rec.Teams)),
		Objects:    rec.ObjectCount,
		AliveUnits: rec.AliveUnits,
		Commands:   make([]int, len(rec.Commands)),
		Rules:      rec.Rules[:],
		DecideMs:   roundMs(rec.DecideDuration),
	}
	for i, t := range rec.Teams {
		turn.Points[i] = t.Points
		turn.Remaining[i] = t.RemainingUnits
	}
	for i, c := range rec.Commands {
		turn.Commands[i] = int(c)
	}
	if !start.IsZero() && !rec.ReceivedAt.IsZero() {
		turn.Offset = math.Round(rec.ReceivedAt.Sub(start).Seconds()*1000) / 1000
	}
	return turn
}

// roundMs converts to milliseconds with microsecond precision
func roundMs(d time.Duration) float64 {
	return math.Round(float64(d.Microseconds())) / 1000
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
