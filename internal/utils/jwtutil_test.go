package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateAndParseToken(t *testing.T) {
	token, exp, err := GenerateToken(secret, 7, "rina", "frontdesk", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserId)
	assert.Equal(t, "rina", claims.Username)
	assert.Equal(t, "frontdesk", claims.Role)
	assert.Equal(t, "rina", claims.Subject)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, _, err := GenerateToken(secret, 1, "old", "admin", -time.Minute)
	require.NoError(t, err)
	foreign, _, err := GenerateToken([]byte("other-secret"), 1, "x", "admin", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", foreign},
		{"garbage", "not.a.token"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(secret, tt.token)
			assert.Error(t, err)
		})
	}
}
