package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("secret", "64f0c3a2e1b2c3d4e5f60718", "alice", time.Hour)
	require.NoError(t, err)

	uid, uname, err := ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "64f0c3a2e1b2c3d4e5f60718", uid)
	assert.Equal(t, "alice", uname)
}

func TestParseJWTRejects(t *testing.T) {
	good, err := GenerateJWT("secret", "64f0c3a2e1b2c3d4e5f60718", "alice", time.Hour)
	require.NoError(t, err)

	expired, err := GenerateJWT("secret", "64f0c3a2e1b2c3d4e5f60718", "alice", -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "empty token", secret: "secret", token: ""},
		{name: "garbage token", secret: "secret", token: "abc.def.ghi"},
		{name: "wrong secret", secret: "other", token: good},
		{name: "expired", secret: "secret", token: expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseJWT(tt.secret, tt.token)
			assert.Error(t, err)
		})
	}
}
