package domain

import "time"

// Reason strings surfaced to callers. Fixed wording; the presentation layer
// displays them verbatim.
const (
	ReasonNotApplicable    = "Not applicable"
	ReasonNoActiveForArea  = "No active warnings for this area"
	ReasonNoActiveWarnings = "No active warnings"
)

// Verdict is the outcome of a safety evaluation.
type Verdict struct {
	Safe   bool
	Reason string
	Level  AwarenessLevel
}

// Evaluate produces the safety verdict for one warning area's records at the
// given instant. The policy, in order:
//
//  1. An empty area id means the point is outside every known district and is
//     treated as unsafe/unknown, not safe.
//  2. No records for the area means safe.
//  3. Otherwise scan every record; among those whose window contains now,
//     keep the highest awareness level and the description of the record
//     that last set it (a later record at the same level overwrites).
//     When nothing is active the default stands: green, "No active warnings".
//
// The boolean verdict counts only orange and red as unsafe. A yellow warning
// is safe for the boolean but its description still comes back as the reason,
// so advisory conditions stay visible.
func Evaluate(areaID string, records []Warning, now time.Time) Verdict {
	if areaID == "" {
		return Verdict{Safe: false, Reason: ReasonNotApplicable, Level: LevelGreen}
	}
	if len(records) == 0 {
		return Verdict{Safe: true, Reason: ReasonNoActiveForArea, Level: LevelGreen}
	}

	level := LevelGreen
	reason := ReasonNoActiveWarnings
	for _, w := range records {
		if !w.ActiveAt(now) {
			continue
		}
		if w.Level >= level {
			level = w.Level
			reason = w.Description
		}
	}

	return Verdict{Safe: !level.Unsafe(), Reason: reason, Level: level}
}
