package entities

import "time"

// ScoreBreakdown carries the per-criterion sub-scores that sum to the total
// match score. The fields are fixed because tag generation and the dashboard
// depend on each of them.
type ScoreBreakdown struct {
	Location    bool    `json:"location"`
	Budget      float64 `json:"budget"`
	PrimaryCare float64 `json:"primaryCare"`
	GeneralCare float64 `json:"generalCare"`
	AddOns      float64 `json:"addOns"`
}

// MatchResult is the outcome of scoring one agency against one patient's
// requirements. It is computed in memory and persisted as a Match.
type MatchResult struct {
	AgencyID  string         `json:"agency_id"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Tags      []string       `json:"tags"`
}

// Match is the persisted record for a (patient, agency) pair. At most one
// row exists per pair; re-running the engine overwrites score, breakdown,
// tags and the update timestamp.
type Match struct {
	ID        string         `json:"id" db:"id"`
	PatientID string         `json:"patient_id" db:"patient_id"`
	AgencyID  string         `json:"agency_id" db:"agency_id"`
	Score     float64        `json:"score" db:"score"`
	Breakdown ScoreBreakdown `json:"breakdown" db:"-"`
	Tags      []string       `json:"tags" db:"-"`
	ChannelID *string        `json:"channel_id,omitempty" db:"channel_id"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// Match event types published on the event bus.
const (
	MatchEventCreated = "match.created"
	MatchEventUpdated = "match.updated"
)

// MatchEvent is published after a match record is persisted.
type MatchEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	MatchID   string    `json:"match_id"`
	PatientID string    `json:"patient_id"`
	AgencyID  string    `json:"agency_id"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}
