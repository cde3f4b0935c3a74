package fotmob

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString decodes JSON values that may arrive either as a string or as a
// number (minute labels, shirt numbers, entity ids).
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// FlexFloat decodes numeric stat values that may arrive quoted
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// MatchDetails is the nested payload returned by the match details endpoint
type MatchDetails struct {
	General General `json:"general"`
	Header  Header  `json:"header"`
	Content Content `json:"content"`
}

// General holds the general match info section
type General struct {
	MatchID          FlexString `json:"matchId"`
	MatchTimeUTCDate string     `json:"matchTimeUTCDate"`
	LeagueRoundName  FlexString `json:"leagueRoundName"`
	HomeTeam         TeamInfo   `json:"homeTeam"`
	AwayTeam         TeamInfo   `json:"awayTeam"`
}

// TeamInfo identifies one side of the match
type TeamInfo struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

// Header holds the header/status section
type Header struct {
	Status Status `json:"status"`
}

// Status is the authoritative match status
type Status struct {
	Finished bool   `json:"finished"`
	Started  bool   `json:"started"`
	ScoreStr string `json:"scoreStr"`
}

// Content holds the detail sections of a match
type Content struct {
	MatchFacts  MatchFacts                 `json:"matchFacts"`
	Lineup      Lineup                     `json:"lineup"`
	PlayerStats map[string]PlayerStatEntry `json:"playerStats"`
	Shotmap     Shotmap                    `json:"shotmap"`
}

// MatchFacts groups the info box and the chronological event list
type MatchFacts struct {
	InfoBox InfoBox   `json:"infoBox"`
	Events  EventList `json:"events"`
}

// InfoBox carries tournament and referee metadata
type InfoBox struct {
	Tournament struct {
		LeagueName string `json:"leagueName"`
	} `json:"Tournament"`
	Referee struct {
		Text string `json:"text"`
	} `json:"Referee"`
}

// EventList wraps the match event timeline
type EventList struct {
	Events []MatchEvent `json:"events"`
}

// MatchEvent is one entry of the match timeline. Only card events carry a
// non-empty Card field.
type MatchEvent struct {
	Card            string           `json:"card"`
	CardDescription *CardDescription `json:"cardDescription"`
	Player          EventPlayer      `json:"player"`
	IsHome          bool             `json:"isHome"`
	TimeStr         FlexString       `json:"timeStr"`
}

// CardDescription carries extra card metadata, e.g. cards shown to people
// not on the pitch
type CardDescription struct {
	LocalizedKey string `json:"localizedKey"`
}

// EventPlayer identifies the player involved in a timeline event
type EventPlayer struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

// Lineup holds both rosters
type Lineup struct {
	HomeTeam LineupTeam `json:"homeTeam"`
	AwayTeam LineupTeam `json:"awayTeam"`
}

// LineupTeam is one side's roster split into starters and substitutes
type LineupTeam struct {
	ID       FlexString     `json:"id"`
	Starters []LineupPlayer `json:"starters"`
	Subs     []LineupPlayer `json:"subs"`
}

// LineupPlayer is one roster entry
type LineupPlayer struct {
	ID                     FlexString `json:"id"`
	Name                   string     `json:"name"`
	ShirtNumber            FlexString `json:"shirtNumber"`
	UsualPlayingPositionID *int       `json:"usualPlayingPositionId"`
	Performance            struct {
		Rating float64 `json:"rating"`
	} `json:"performance"`
	VerticalLayout struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"verticalLayout"`
}

// PlayerStatEntry is the per-player entry of the playerStats map
type PlayerStatEntry struct {
	Stats []StatGroup `json:"stats"`
}

// StatGroup is one titled group of stats
type StatGroup struct {
	Title string              `json:"title"`
	Stats map[string]StatItem `json:"stats"`
}

// StatItem is a single keyed stat value
type StatItem struct {
	Key  string `json:"key"`
	Stat struct {
		Value FlexFloat `json:"value"`
	} `json:"stat"`
}

// Shotmap wraps the flat shot list
type Shotmap struct {
	Shots []ShotEvent `json:"shots"`
}

// ShotEvent is one shot of the shotmap
type ShotEvent struct {
	PlayerID        FlexString `json:"playerId"`
	PlayerName      string     `json:"playerName"`
	TeamID          FlexString `json:"teamId"`
	Min             FlexString `json:"min"`
	IsOnTarget      bool       `json:"isOnTarget"`
	IsBlocked       bool       `json:"isBlocked"`
	ShotType        string     `json:"shotType"`
	Situation       string     `json:"situation"`
	EventType       string     `json:"eventType"`
	IsFromInsideBox bool       `json:"isFromInsideBox"`
}

// FlattenPlayerStats flattens the nested array-of-stat-groups structure into
// a flat key -> value map for one player. Entries without a key are dropped.
func FlattenPlayerStats(entry PlayerStatEntry) map[string]float64 {
	flat := make(map[string]float64)
	for _, group := range entry.Stats {
		for _, item := range group.Stats {
			if item.Key == "" {
				continue
			}
			flat[item.Key] = float64(item.Stat.Value)
		}
	}
	return flat
}
