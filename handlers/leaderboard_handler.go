package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handirank/handirank/models"
	"github.com/handirank/handirank/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// World returns the cross-season leaderboard.
func (h *LeaderboardHandler) World(w http.ResponseWriter, r *http.Request) {
	standings, err := h.leaderboardService.World(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeStandings(w, r, standings)
}

// Season returns one season's leaderboard, round-less participants included.
func (h *LeaderboardHandler) Season(w http.ResponseWriter, r *http.Request) {
	standings, err := h.leaderboardService.Season(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeStandings(w, r, standings)
}

func writeStandings(w http.ResponseWriter, r *http.Request, standings []models.Standing) {
	if standings == nil {
		standings = []models.Standing{}
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
