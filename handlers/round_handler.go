package handlers

import (
	"net/http"

	"github.com/handirank/handirank/middleware"
	"github.com/handirank/handirank/services"
)

type RoundHandler struct {
	roundService *services.RoundService
}

func NewRoundHandler(roundService *services.RoundService) *RoundHandler {
	return &RoundHandler{roundService: roundService}
}

// Submit records a round for the signed-in user, or for another
// participant when the caller is the season admin.
func (h *RoundHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, services.ErrSessionRequired.Error())
		return
	}

	var input services.RoundInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if input.UserName == "" {
		input.UserName = session.Name
	}
	if input.UserName != session.Name {
		// Submitting for someone else is an admin entry on the caller's
		// authority.
		input.AddedBy = session.Name
	}
	if input.PlayerPhoto == "" && input.UserName == session.Name {
		input.PlayerPhoto = session.Photo
	}

	result, err := h.roundService.Submit(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
