package models

import "time"

// Round is one submitted score event. Rounds are immutable after creation;
// they disappear only when their owner is removed from the season.
type Round struct {
	ID            string    `json:"id"`
	PlayedAt      time.Time `json:"played_at"`
	Player        string    `json:"player"`
	Gross         int       `json:"gross"`
	Rating        float64   `json:"rating"`
	Slope         int       `json:"slope"`
	Holes         int       `json:"holes"`
	AdjustedGross int       `json:"adjusted_gross"`
	// Differential is the stored, authoritative value driving all ranking.
	// The repository maps NULL or unparseable store values to NaN so the
	// engine can skip them without failing the whole leaderboard.
	Differential float64   `json:"differential"`
	SeasonCode   string    `json:"season_code"`
	PlayerPhoto  string    `json:"player_photo,omitempty"`
	AddedBy      string    `json:"added_by,omitempty"`
	IsAdminEntry bool      `json:"is_admin_entry"`
	AddedAt      time.Time `json:"added_at"`
}

// RoundSummary is the per-round slice of a standing, kept for trend display.
type RoundSummary struct {
	PlayedAt     time.Time `json:"played_at"`
	Gross        int       `json:"gross"`
	Rating       float64   `json:"rating"`
	Slope        int       `json:"slope"`
	Holes        int       `json:"holes"`
	Differential float64   `json:"differential"`
	SeasonCode   string    `json:"season_code,omitempty"`
}
