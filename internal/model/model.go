package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Match{},
	&TurnSnapshot{},
	&TeamScore{},
	&ClientPerformance{},
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// ClientPerformance samples the recorder's own health once per flush
type ClientPerformance struct {
	Time                time.Time `json:"time" gorm:"index:idx_perf_time"`
	MatchID             uint      `json:"matchId" gorm:"index:idx_perf_match_id"`
	Match               Match     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:MatchID;"`
	TurnQueue           uint16    `json:"turnQueue"`
	ScoreQueue          uint16    `json:"scoreQueue"`
	DroppedTurns        uint64    `json:"droppedTurns"`
	LastWriteDurationMs float32   `json:"lastWriteDurationMs"`
}

func (*ClientPerformance) TableName() string {
	return "client_performances"
}

////////////////////////
// RECORDING MODELS
////////////////////////

// Match is one connection to a game server
type Match struct {
	gorm.Model
	TeamName      string         `json:"teamName" gorm:"size:16;index:idx_match_team"`
	Server        string         `json:"server" gorm:"size:255"`
	StartTime     time.Time      `json:"startTime" gorm:"index:idx_match_start"`
	EndTime       *time.Time     `json:"endTime"`
	EndReason     string         `json:"endReason" gorm:"size:127"`
	OwnTeamID     int16          `json:"ownTeamId" gorm:"default:-1"`
	TurnCount     uint           `json:"turnCount"`
	FinalPoints   uint16         `json:"finalPoints"`
	Roles         datatypes.JSON `json:"roles" gorm:"default:'[]'"` // role name per unit id
	ClientVersion string         `json:"clientVersion" gorm:"size:64"`
	Tag           string         `json:"tag" gorm:"size:127"`

	Turns []TurnSnapshot `json:"-"`
}

func (*Match) TableName() string {
	return "matches"
}

// Duration returns the wall-clock length of a finished match, or zero.
func (m *Match) Duration() time.Duration {
	if m.EndTime == nil {
		return 0
	}
	return m.EndTime.Sub(m.StartTime)
}

// TurnSnapshot is one played turn
// Uses composite primary key (MatchID, Turn)
//
// Event: :TURN:
type TurnSnapshot struct {
	MatchID     uint           `json:"matchId" gorm:"primaryKey;autoIncrement:false"`
	Turn        uint           `json:"turn" gorm:"primaryKey;autoIncrement:false"`
	Match       Match          `json:"-" gorm:"foreignkey:MatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ReceivedAt  time.Time      `json:"receivedAt" gorm:"NOT NULL"`
	OwnTeamID   int16          `json:"ownTeamId"`
	OwnPoints   uint16         `json:"ownPoints"`
	ObjectCount uint16         `json:"objectCount"`
	AliveUnits  uint8          `json:"aliveUnits"`
	Commands    datatypes.JSON `json:"commands" gorm:"default:'[]'"` // 16 direction codes
	Rules       datatypes.JSON `json:"rules" gorm:"default:'[]'"`    // rule that decided each code
	DecodeMs    float32        `json:"decodeMs"`
	DecideMs    float32        `json:"decideMs"`
}

func (*TurnSnapshot) TableName() string {
	return "turn_snapshots"
}

// TeamScore is one row of the team table at a given turn
type TeamScore struct {
	MatchID        uint   `json:"matchId" gorm:"primaryKey;autoIncrement:false"`
	Turn           uint   `json:"turn" gorm:"primaryKey;autoIncrement:false"`
	TeamID         uint8  `json:"teamId" gorm:"primaryKey;autoIncrement:false"`
	Match          Match  `json:"-" gorm:"foreignkey:MatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name           string `json:"name" gorm:"size:16"`
	Points         uint16 `json:"points"`
	RemainingUnits uint16 `json:"remainingUnits"`
}

func (*TeamScore) TableName() string {
	return "team_scores"
}
