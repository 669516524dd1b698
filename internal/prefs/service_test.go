package prefs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seesound/backend/internal/storage/models"
)

type failingRepo struct{}

func (failingRepo) GetPreferences(context.Context, string) (models.Preferences, error) {
	return models.Preferences{}, errors.New("store unreachable")
}

func (failingRepo) SavePreferences(context.Context, models.Preferences) error {
	return errors.New("store unreachable")
}

func TestMemoryStore_DefaultsForUnknownUser(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)

	p := svc.Get(context.Background(), "never-saved")
	require.Equal(t, models.Preferences{
		UserID:               "never-saved",
		TTSSpeed:             1.0,
		AnnouncementInterval: 10,
		PriorityMode:         "dynamic",
	}, p)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)

	saved := svc.Save(context.Background(), models.Preferences{
		UserID:               "u1",
		TTSSpeed:             1.5,
		AnnouncementInterval: 30,
		PriorityMode:         "static",
	})

	got := svc.Get(context.Background(), "u1")
	require.Equal(t, saved, got)
}

func TestMemoryStore_SaveIsIdempotent(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)

	p := models.Preferences{UserID: "u1", TTSSpeed: 2.0, AnnouncementInterval: 5, PriorityMode: "dynamic"}
	svc.Save(context.Background(), p)
	svc.Save(context.Background(), p)

	require.Equal(t, p, svc.Get(context.Background(), "u1"))
}

func TestMemoryStore_UsersDoNotCollide(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)

	svc.Save(context.Background(), models.Preferences{UserID: "a", TTSSpeed: 0.5, AnnouncementInterval: 5, PriorityMode: "static"})
	svc.Save(context.Background(), models.Preferences{UserID: "b", TTSSpeed: 2.0, AnnouncementInterval: 60, PriorityMode: "dynamic"})

	require.Equal(t, 0.5, svc.Get(context.Background(), "a").TTSSpeed)
	require.Equal(t, 2.0, svc.Get(context.Background(), "b").TTSSpeed)
}

func TestService_EmptyUserIDUsesSentinel(t *testing.T) {
	svc := NewService(NewMemoryStore(), nil)

	saved := svc.Save(context.Background(), models.Preferences{TTSSpeed: 1.2, AnnouncementInterval: 15, PriorityMode: "dynamic"})
	require.Equal(t, models.DefaultUserID, saved.UserID)

	got := svc.Get(context.Background(), "")
	require.Equal(t, saved, got)
}

func TestService_DegradesToDefaultsOnStoreFailure(t *testing.T) {
	svc := NewService(failingRepo{}, nil)

	p := svc.Get(context.Background(), "u1")
	require.Equal(t, models.DefaultPreferences("u1"), p)
}

func TestService_SaveSwallowsStoreFailure(t *testing.T) {
	svc := NewService(failingRepo{}, nil)

	req := models.Preferences{UserID: "u1", TTSSpeed: 1.5, AnnouncementInterval: 20, PriorityMode: "static"}
	saved := svc.Save(context.Background(), req)
	require.Equal(t, req, saved)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%10))
			svc.Save(context.Background(), models.Preferences{
				UserID:               id,
				TTSSpeed:             1.0,
				AnnouncementInterval: n,
				PriorityMode:         "dynamic",
			})
			svc.Get(context.Background(), id)
		}(i)
	}
	wg.Wait()
}
