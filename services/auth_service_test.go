package services

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueSession(t *testing.T) {
	svc := NewAuthService("test-secret")

	token, session, err := svc.IssueSession(SessionInput{
		UserName:  "alice",
		UserEmail: "alice@example.com",
		UserPhoto: "https://example.com/alice.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Name)

	parsed, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "alice", claims["name"])
	assert.Equal(t, "alice@example.com", claims["email"])
	assert.NotEmpty(t, claims["exp"])
}

func TestIssueSessionValidation(t *testing.T) {
	svc := NewAuthService("test-secret")

	_, _, err := svc.IssueSession(SessionInput{})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, _, err = svc.IssueSession(SessionInput{UserName: "alice", UserEmail: "not-an-email"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
