// pkg/core/match.go
package core

import "time"

// Match describes one connection to a game server from registration to disconnect.
type Match struct {
	ID            uint      `json:"id"`
	TeamName      string    `json:"teamName"`
	Server        string    `json:"server"`
	StartTime     time.Time `json:"startTime"`
	Roles         RoleTable `json:"roles"`
	ClientVersion string    `json:"clientVersion"`
	Tag           string    `json:"tag"`
}

// TurnRecord is what the recorder keeps for every played turn.
type TurnRecord struct {
	MatchID        uint                `json:"matchId"`
	Number         uint                `json:"number"`
	OwnTeamID      int16               `json:"ownTeamId"`
	Teams          [TeamCount]Team     `json:"teams"`
	ObjectCount    int                 `json:"objectCount"`
	Commands       [CommandSize]byte   `json:"commands"`
	Rules          [CommandSize]string `json:"rules"`
	AliveUnits     int                 `json:"aliveUnits"`
	DecodeDuration time.Duration       `json:"decodeDuration"`
	DecideDuration time.Duration       `json:"decideDuration"`
	ReceivedAt     time.Time           `json:"receivedAt"`
}

// OwnPoints returns the observer's score, or 0 if its id is out of range.
func (r *TurnRecord) OwnPoints() uint16 {
	if r.OwnTeamID < 0 || int(r.OwnTeamID) >= TeamCount {
		return 0
	}
	return r.Teams[r.OwnTeamID].Points
}

// MatchResult closes a match.
type MatchResult struct {
	MatchID uint      `json:"matchId"`
	EndTime time.Time `json:"endTime"`
	Turns   uint      `json:"turns"`
	// Reason is why the connection ended, e.g. "server closed" or "interrupted".
	Reason string `json:"reason"`
}

// UploadMetadata contains match metadata sent alongside an exported replay.
type UploadMetadata struct {
	TeamName      string
	Server        string
	TurnCount     uint
	MatchDuration float64
	Tag           string
}
