package models

// Standing is one leaderboard row. Average is the raw best-N mean that
// drives ranking and admin election; Index is the displayed value with the
// 0.96 bonus applied. Players without any usable round carry the engine's
// no-rounds sentinel in both fields and sort last.
type Standing struct {
	Rank        int            `json:"rank"`
	Player      string         `json:"player"`
	Photo       string         `json:"photo,omitempty"`
	Rounds      int            `json:"rounds"`
	RecentGross int            `json:"recent_gross,omitempty"`
	Average     float64        `json:"average"`
	Index       float64        `json:"index"`
	History     []RoundSummary `json:"history,omitempty"`
}

// Session identifies the signed-in user for the duration of a token. The
// profile fields come from whatever identity provider the client used;
// verifying them is out of scope here.
type Session struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Photo string `json:"photo,omitempty"`
}
