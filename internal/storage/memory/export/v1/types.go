// Package v1 contains the v1 replay format for recorded matches.
package v1

// FormatVersion is written into every export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	FormatVersion int    `json:"formatVersion"`
	ClientVersion string `json:"clientVersion"`
	TeamName      string `json:"teamName"`
	Server        string `json:"server"`
	Tags          string `json:"tags"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime,omitempty"`
	EndReason     string `json:"endReason,omitempty"`
	OwnTeamID     int16  `json:"ownTeamId"`
	EndTurn       uint   `json:"endTurn"`
	// Roles is the job of each own unit, indexed by unit id
	Roles []string `json:"roles"`
	// Teams is the team table of the last recorded turn
	Teams []Team `json:"teams"`
	Turns []Turn `json:"turns"`
}

// Team is one row of the final team table
type Team struct {
	ID             uint8  `json:"id"`
	Name           string `json:"name"`
	Points         uint16 `json:"points"`
	RemainingUnits uint16 `json:"remainingUnits"`
}

// Turn is one played turn. Points and Remaining are indexed by team id,
// Commands and Rules by own unit id.
type Turn struct {
	Number     uint     `json:"n"`
	Points     []uint16 `json:"points"`
	Remaining  []uint16 `json:"remaining"`
	Objects    int      `json:"objects"`
	AliveUnits int      `json:"alive"`
	Commands   []int    `json:"commands"`
	Rules      []string `json:"rules"`
	DecideMs   float64  `json:"decideMs"`
	Offset     float64  `json:"offset"` // seconds since match start
}
