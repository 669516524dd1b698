package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seesound/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func TestGetPreferences_DefaultsForUnknownUser(t *testing.T) {
	client := newTestClient(t)

	p, err := client.GetPreferences(context.Background(), "nobody")
	require.NoError(t, err)
	require.Equal(t, models.DefaultPreferences("nobody"), p)
}

func TestSavePreferences_RoundTrip(t *testing.T) {
	client := newTestClient(t)

	want := models.Preferences{
		UserID:               "u1",
		TTSSpeed:             1.5,
		AnnouncementInterval: 30,
		PriorityMode:         "static",
	}
	require.NoError(t, client.SavePreferences(context.Background(), want))

	got, err := client.GetPreferences(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSavePreferences_UpsertReplacesRecord(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := models.Preferences{UserID: "u1", TTSSpeed: 1.0, AnnouncementInterval: 10, PriorityMode: "dynamic"}
	require.NoError(t, client.SavePreferences(ctx, first))

	second := models.Preferences{UserID: "u1", TTSSpeed: 2.0, AnnouncementInterval: 60, PriorityMode: "static"}
	require.NoError(t, client.SavePreferences(ctx, second))

	got, err := client.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestSavePreferences_Idempotent(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	p := models.Preferences{UserID: "u1", TTSSpeed: 1.5, AnnouncementInterval: 20, PriorityMode: "dynamic"}
	require.NoError(t, client.SavePreferences(ctx, p))
	require.NoError(t, client.SavePreferences(ctx, p))

	got, err := client.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestLogQuery_AppendAndHistory(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.LogQuery(ctx, "u1", "what is ahead?", "a staircase"))
	require.NoError(t, client.LogQuery(ctx, "u1", "is the door open?", "yes"))
	require.NoError(t, client.LogQuery(ctx, "u2", "other user", "other answer"))

	entries, err := client.QueryHistory(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	require.Equal(t, "is the door open?", entries[0].Question)
	require.Equal(t, "yes", entries[0].Answer)
	require.Equal(t, "what is ahead?", entries[1].Question)
	for _, e := range entries {
		require.Equal(t, "u1", e.UserID)
	}
}

func TestQueryHistory_HonorsLimit(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, client.LogQuery(ctx, "u1", "q", "a"))
	}

	entries, err := client.QueryHistory(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestPruneQueryHistory(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.LogQuery(ctx, "u1", "recent", "a"))

	// Backdate one row beyond the retention window.
	_, err := client.db.ExecContext(ctx,
		`INSERT INTO query_history (user_id, question, answer, timestamp) VALUES (?, ?, ?, 0)`,
		"u1", "ancient", "a",
	)
	require.NoError(t, err)

	deleted, err := client.PruneQueryHistory(ctx, 30)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	entries, err := client.QueryHistory(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "recent", entries[0].Question)
}

func TestPruneQueryHistory_DisabledRetention(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.LogQuery(ctx, "u1", "q", "a"))

	deleted, err := client.PruneQueryHistory(ctx, 0)
	require.NoError(t, err)
	require.Zero(t, deleted)
}
