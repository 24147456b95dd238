package domain

import (
	"strings"
	"time"
)

// warningTimeLayout is the fixed timestamp format of the warnings feed.
// No timezone offset; values are treated as UTC.
const warningTimeLayout = "2006-01-02T15:04:05"

// AwarenessLevel is IPMA's ordered warning severity: green < yellow <
// orange < red. The zero value is green.
type AwarenessLevel int

const (
	LevelGreen AwarenessLevel = iota
	LevelYellow
	LevelOrange
	LevelRed
)

// ParseAwarenessLevel maps a feed awarenessLevelID string to a level.
// Unknown or empty values map to green, mirroring the feed's use of green
// as "nothing to report".
func ParseAwarenessLevel(s string) AwarenessLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yellow":
		return LevelYellow
	case "orange":
		return LevelOrange
	case "red":
		return LevelRed
	default:
		return LevelGreen
	}
}

func (l AwarenessLevel) String() string {
	switch l {
	case LevelYellow:
		return "yellow"
	case LevelOrange:
		return "orange"
	case LevelRed:
		return "red"
	default:
		return "green"
	}
}

// Unsafe reports whether the level counts as unsafe for the boolean verdict.
// Only orange and red do; yellow is advisory.
func (l AwarenessLevel) Unsafe() bool {
	return l >= LevelOrange
}

// Warning is one record of the warnings feed after decoding.
type Warning struct {
	AreaID      string
	Start       time.Time
	End         time.Time
	Level       AwarenessLevel
	Description string
}

// ActiveAt reports whether the warning's validity window contains now,
// both bounds inclusive.
func (w Warning) ActiveAt(now time.Time) bool {
	return !now.Before(w.Start) && !now.After(w.End)
}

// ParseWarningTime parses a feed timestamp. Malformed or empty input yields
// the zero time rather than an error; the upstream contract is that such a
// record simply never becomes active.
func ParseWarningTime(s string) time.Time {
	t, err := time.ParseInLocation(warningTimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FeedWarning is the wire shape of one warnings-feed entry.
type FeedWarning struct {
	AreaID      string `json:"idAreaAviso"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	LevelID     string `json:"awarenessLevelID"`
	Description string `json:"awarenessTypeName"`
}

// Decode converts a wire entry into a domain Warning.
func (f FeedWarning) Decode() Warning {
	return Warning{
		AreaID:      f.AreaID,
		Start:       ParseWarningTime(f.StartTime),
		End:         ParseWarningTime(f.EndTime),
		Level:       ParseAwarenessLevel(f.LevelID),
		Description: f.Description,
	}
}
