package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/handirank/handirank/middleware"
	"github.com/handirank/handirank/services"
	"github.com/handirank/handirank/storage"
)

const maxAvatarBytes = 5 << 20 // 5MB

var allowedAvatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type AvatarHandler struct {
	uploader storage.FileUploader
}

func NewAvatarHandler(uploader storage.FileUploader) *AvatarHandler {
	return &AvatarHandler{uploader: uploader}
}

// Upload stores the signed-in user's avatar and returns its public URL.
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, services.ErrSessionRequired.Error())
		return
	}
	if h.uploader == nil {
		errorResponse(w, r, http.StatusServiceUnavailable, "avatar storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse upload: %w", err))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, errors.New("form field 'avatar' is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedAvatarTypes[contentType]
	if !ok {
		badRequestResponse(w, r, fmt.Errorf("unsupported avatar content type %q", contentType))
		return
	}

	key := path.Join("avatars", sanitizeName(session.Name)+"-"+uuid.NewString()+ext)
	result, err := h.uploader.Upload(r.Context(), key, contentType, file)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"key": result.Key,
		"url": result.Location,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "player"
	}
	return b.String()
}
