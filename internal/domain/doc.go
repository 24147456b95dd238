// Package domain models IPMA severe-weather warning data for mainland Portugal.
//
// # Data Source
//
// Warnings come from IPMA's open-data warnings feed,
// https://api.ipma.pt/open-data/forecast/warnings/warnings_www.json, a flat
// JSON array with one entry per (warning area, hazard type) pair. Each entry
// carries an awareness level, a hazard description, and a validity window.
// Daily forecasts come from the per-district feed at
// https://api.ipma.pt/open-data/forecast/meteorology/cities/daily/{id}.json.
//
// # IPMA Conventions
//
// Warning areas:
//
//	Mainland Portugal is partitioned into warning areas identified by short
//	codes derived from the district capital (LSB, PTO, FAR, ...). These are
//	distinct from the numeric globalIdLocal codes that key the forecast feed
//	(e.g. 1110600 for Lisboa).
//
// Awareness levels:
//
//	green < yellow < orange < red, carried as lowercase strings in the
//	awarenessLevelID field. Green means no hazard; yellow is advisory;
//	orange and red indicate dangerous conditions.
//
// Timestamps:
//
//	"2006-01-02T15:04:05" with no timezone offset. Parsed as UTC. Malformed
//	or empty values map to the time.Time zero value rather than an error, so
//	a record with broken bounds simply never tests as active.
//
// # District Table
//
// The district table is a literal transcription of the upstream registry,
// including its known irregularities (a duplicated CBR warning area, a
// duplicated numeric forecast id, and the non-numeric VRL1171400 forecast
// id). See the comments on the table itself.
package domain
