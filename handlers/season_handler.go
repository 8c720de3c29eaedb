package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handirank/handirank/middleware"
	"github.com/handirank/handirank/services"
)

type SeasonHandler struct {
	seasonService *services.SeasonService
}

func NewSeasonHandler(seasonService *services.SeasonService) *SeasonHandler {
	return &SeasonHandler{seasonService: seasonService}
}

// Create registers a new season. The signed-in user becomes its first admin
// unless the payload names someone else.
func (h *SeasonHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, services.ErrSessionRequired.Error())
		return
	}

	var input services.CreateSeasonInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.AdminName == "" {
		input.AdminName = session.Name
		input.AdminEmail = session.Email
		input.AdminPhoto = session.Photo
	}

	season, err := h.seasonService.CreateSeason(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"season": season}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List returns every known season code.
func (h *SeasonHandler) List(w http.ResponseWriter, r *http.Request) {
	codes, err := h.seasonService.ListSeasonCodes(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"seasons": codes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Join adds the signed-in user to the season after the password check.
func (h *SeasonHandler) Join(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, services.ErrSessionRequired.Error())
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &body); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	season, err := h.seasonService.Join(r.Context(), services.JoinSeasonInput{
		SeasonCode: chi.URLParam(r, "code"),
		Password:   body.Password,
		UserName:   session.Name,
		UserEmail:  session.Email,
		UserPhoto:  session.Photo,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"season": season}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Status reports membership and admin state for the signed-in user.
func (h *SeasonHandler) Status(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, services.ErrSessionRequired.Error())
		return
	}

	status, err := h.seasonService.Status(r.Context(), chi.URLParam(r, "code"), session.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, status, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Password reveals the shared season password to the current admin.
func (h *SeasonHandler) Password(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, services.ErrSessionRequired.Error())
		return
	}

	password, err := h.seasonService.RevealPassword(r.Context(), chi.URLParam(r, "code"), session.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"password": password}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemoveParticipant drops a participant and their rounds. Admin only.
func (h *SeasonHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, services.ErrSessionRequired.Error())
		return
	}

	name := chi.URLParam(r, "name")
	if name == "" {
		badRequestResponse(w, r, errors.New("participant name is required"))
		return
	}

	err := h.seasonService.RemoveParticipant(r.Context(), chi.URLParam(r, "code"), name, session.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"removed": name}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
