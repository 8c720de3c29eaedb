package handicap

import (
	"time"

	"github.com/handirank/handirank/models"
)

// Change describes an admin handover. Previous is empty when the season had
// no admin before the election (transient state right after creation).
type Change struct {
	Previous string `json:"previousAdmin"`
	New      string `json:"newAdmin"`
}

// Elect applies the leader-takes-admin rule to a season in place and reports
// whether the participant list was modified.
//
// The rules, in order:
//   - an empty ranking changes nothing;
//   - a leader who never joined the season as a participant cannot inherit
//     admin, so nothing changes;
//   - a leader who already holds the flag (and holds it alone) changes
//     nothing, which makes repeated elections over the same rounds no-ops;
//   - otherwise the flag moves to the leader, the season's admin snapshot
//     (name, email, photo) is refreshed and the update timestamp set.
//
// A corrupt list with several flagged participants is normalized to exactly
// one on the next transition through here.
func Elect(season *models.Season, standings []models.Standing, now time.Time) (*Change, bool) {
	if len(standings) == 0 {
		return nil, false
	}

	leader := standings[0].Player
	leaderParticipant := season.FindParticipant(leader)
	if leaderParticipant == nil {
		return nil, false
	}

	adminCount := 0
	previous := ""
	for i := range season.Participants {
		if season.Participants[i].IsAdmin {
			adminCount++
			if previous == "" {
				previous = season.Participants[i].Name
			}
		}
	}

	if leaderParticipant.IsAdmin && adminCount == 1 {
		return nil, false
	}

	for i := range season.Participants {
		season.Participants[i].IsAdmin = season.Participants[i].Name == leader
	}
	season.AdminName = leaderParticipant.Name
	season.AdminEmail = leaderParticipant.Email
	season.AdminPhoto = leaderParticipant.Photo
	t := now
	season.AdminUpdatedAt = &t

	if previous == leader {
		// Flag cleanup only; the admin did not actually change.
		return nil, true
	}
	return &Change{Previous: previous, New: leader}, true
}
