package services

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"

	"github.com/handirank/handirank/models"
)

// AuthService mints session tokens for signed-in players. The identity
// provider handshake happens entirely on the client; the server only keeps a
// signed snapshot of the profile it was handed.
type AuthService interface {
	IssueSession(input SessionInput) (string, *models.Session, error)
}

type SessionInput struct {
	UserName  string `json:"userName" validate:"required,min=1,max=120"`
	UserEmail string `json:"userEmail" validate:"omitempty,email"`
	UserPhoto string `json:"userPhoto" validate:"omitempty,url"`
}

type authService struct {
	secret   []byte
	ttl      time.Duration
	validate *validator.Validate
}

func NewAuthService(secret string) AuthService {
	return &authService{
		secret:   []byte(secret),
		ttl:      24 * time.Hour,
		validate: validator.New(),
	}
}

func (s *authService) IssueSession(input SessionInput) (string, *models.Session, error) {
	if err := s.validate.Struct(input); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	session := &models.Session{
		Name:  input.UserName,
		Email: input.UserEmail,
		Photo: input.UserPhoto,
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"name":  session.Name,
		"email": session.Email,
		"photo": session.Photo,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, session, nil
}
