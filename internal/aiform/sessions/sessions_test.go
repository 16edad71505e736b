package sessions

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/config"
)

func TestBlacklist(t *testing.T) {
	cfg := &config.Config{SessionsDBPath: filepath.Join(t.TempDir(), "sessions.db")}
	sm := NewSessionsManager(cfg, time.Hour)
	defer sm.Close()

	signature := []byte("token-signature")

	blacklisted, err := sm.IsTokenBlacklisted(signature)
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, sm.BlacklistToken(signature))

	blacklisted, err = sm.IsTokenBlacklisted(signature)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	blacklisted, err = sm.IsTokenBlacklisted([]byte("other-signature"))
	require.NoError(t, err)
	assert.False(t, blacklisted)
}
