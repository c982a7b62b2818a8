package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"playlist-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActionEvent(t *testing.T) {
	actor := "u-1"
	rec := domain.LogRecord{
		ID:         "log-1",
		Timestamp:  time.Date(2026, 4, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600)),
		ActorID:    &actor,
		ActionKind: domain.ActionDelete,
		EntityKind: domain.EntitySong,
		EntityID:   "s-1",
		Detail:     "Removed",
	}

	b, err := json.Marshal(NewActionEvent(rec))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "playlist-service", got["service"])
	assert.Equal(t, "log-1", got["log_id"])
	assert.Equal(t, "u-1", got["actor_id"])
	assert.Equal(t, "DELETE", got["action_type"])
	assert.Equal(t, "SONG", got["entity_type"])
	assert.Equal(t, "2026-04-01T07:00:00Z", got["occurred_at"])
}

func TestMessageKey(t *testing.T) {
	actor := "u-1"
	assert.Equal(t, []byte("u-1"), messageKey(domain.LogRecord{ActorID: &actor, EntityKind: domain.EntitySong, EntityID: "s"}))
	assert.Equal(t, []byte("PLAYLIST:all"), messageKey(domain.LogRecord{EntityKind: domain.EntityPlaylist, EntityID: domain.EntityIDAll}))

	b, err := json.Marshal(NewActionEvent(domain.LogRecord{ID: "x"}))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"actor_id":null`)
}
