package handlers

import (
	"net/http"

	"github.com/handirank/handirank/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// CreateSession exchanges a client-side sign-in profile for a signed token.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var input services.SessionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	token, session, err := h.authService.IssueSession(input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"token": token,
		"user":  session,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
