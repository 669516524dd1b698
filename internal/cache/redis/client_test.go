package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/seesound/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	srv := miniredis.RunT(t)
	port, err := strconv.Atoi(srv.Port())
	require.NoError(t, err)

	client, err := NewClient(srv.Host(), port, "", 0, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestPreferencesCache_MissThenHit(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, ok, err := client.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	require.False(t, ok)

	want := models.Preferences{UserID: "u1", TTSSpeed: 1.5, AnnouncementInterval: 30, PriorityMode: "static"}
	require.NoError(t, client.SetPreferences(ctx, want))

	got, ok, err := client.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestPreferencesCache_UnreachableServer(t *testing.T) {
	_, err := NewClient("127.0.0.1", 1, "", 0, time.Minute)
	require.Error(t, err)
}
