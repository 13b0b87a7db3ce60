package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Now()
	token := &RefreshToken{ExpiresAt: now.Add(time.Minute)}
	assert.True(t, token.Usable(now))
	assert.False(t, token.Usable(now.Add(time.Minute)))

	token.Revoked = true
	assert.False(t, token.Usable(now))
}

func TestRefreshTokenNeverSerialised(t *testing.T) {
	raw, err := json.Marshal(RefreshToken{ID: "t1", UserID: "u1", Token: "secret-value", IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, -1, 1, DefaultPageSize},
		{2, 50, 2, 50},
		{1, MaxPageSize, 1, MaxPageSize},
		{1, 500, 1, MaxPageSize},
	}
	for _, tc := range cases {
		page, size := NormalizePage(tc.page, tc.size)
		assert.Equal(t, tc.wantPage, page)
		assert.Equal(t, tc.wantSize, size, "size %d", tc.size)
	}
}
