package prefs

import (
	"context"

	"go.uber.org/zap"

	"github.com/seesound/backend/internal/storage/models"
	"github.com/seesound/backend/pkg/logger"
)

// Repository is the durable preference backend (SQLite client or the
// in-memory demo store).
type Repository interface {
	GetPreferences(ctx context.Context, userID string) (models.Preferences, error)
	SavePreferences(ctx context.Context, p models.Preferences) error
}

// Cache is an optional read-through layer in front of the repository.
type Cache interface {
	GetPreferences(ctx context.Context, userID string) (models.Preferences, bool, error)
	SetPreferences(ctx context.Context, p models.Preferences) error
}

// Service applies the degradation policy: reads fall back to defaults and
// writes are best-effort. Callers never see storage errors.
type Service struct {
	repo  Repository
	cache Cache
}

func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func (s *Service) Get(ctx context.Context, userID string) models.Preferences {
	if userID == "" {
		userID = models.DefaultUserID
	}

	if s.cache != nil {
		if p, ok, err := s.cache.GetPreferences(ctx, userID); err != nil {
			logger.Warn("Preference cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if ok {
			return p
		}
	}

	p, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		logger.Warn("Preference store unavailable, using defaults",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return models.DefaultPreferences(userID)
	}

	if s.cache != nil {
		if err := s.cache.SetPreferences(ctx, p); err != nil {
			logger.Warn("Preference cache write failed", zap.Error(err))
		}
	}

	return p
}

// Save upserts the full record and returns it as saved. Storage failure is
// logged and swallowed; the returned record reflects the request either way.
func (s *Service) Save(ctx context.Context, p models.Preferences) models.Preferences {
	if p.UserID == "" {
		p.UserID = models.DefaultUserID
	}

	if err := s.repo.SavePreferences(ctx, p); err != nil {
		logger.Warn("Preference save failed, continuing without persistence",
			zap.String("user_id", p.UserID),
			zap.Error(err),
		)
		return p
	}

	if s.cache != nil {
		if err := s.cache.SetPreferences(ctx, p); err != nil {
			logger.Warn("Preference cache refresh failed", zap.Error(err))
		}
	}

	logger.Info("Preferences saved",
		zap.String("user_id", p.UserID),
		zap.Float64("tts_speed", p.TTSSpeed),
		zap.Int("announcement_interval", p.AnnouncementInterval),
		zap.String("priority_mode", p.PriorityMode),
	)

	return p
}
