package models

import "time"

// Participant is a membership record embedded in a Season. The JSON keys
// match the participant document stored in the seasons row, so (un)marshal
// is the storage mapping.
type Participant struct {
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Photo    string    `json:"photo,omitempty"`
	IsAdmin  bool      `json:"isAdmin"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Season is a named group of participants sharing a leaderboard. The season
// exclusively owns its participant list; rounds reference it by code only.
type Season struct {
	ID             int           `json:"id"`
	Code           string        `json:"code"`
	SealedPassword string        `json:"-"`
	Participants   []Participant `json:"participants"`
	AdminName      string        `json:"admin_name,omitempty"`
	AdminEmail     string        `json:"admin_email,omitempty"`
	AdminPhoto     string        `json:"admin_photo,omitempty"`
	// MaxParticipants is a free-form setting carried from creation. It is
	// recorded but not enforced on join.
	MaxParticipants int        `json:"max_participants,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	AdminUpdatedAt  *time.Time `json:"admin_updated_at,omitempty"`
	// Version backs the optimistic concurrency check on every save.
	Version int `json:"-"`
}

// AdminParticipant returns the participant currently holding the admin flag,
// or nil. At most one participant is flagged at a time; if the stored list is
// corrupt the first flagged entry wins.
func (s *Season) AdminParticipant() *Participant {
	for i := range s.Participants {
		if s.Participants[i].IsAdmin {
			return &s.Participants[i]
		}
	}
	return nil
}

// FindParticipant looks a participant up by name, the only join key the
// store provides.
func (s *Season) FindParticipant(name string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].Name == name {
			return &s.Participants[i]
		}
	}
	return nil
}
