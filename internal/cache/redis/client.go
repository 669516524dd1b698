package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seesound/backend/internal/storage/models"
	"github.com/seesound/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func prefsKey(userID string) string {
	return fmt.Sprintf("prefs:%s", userID)
}

func (c *Client) GetPreferences(ctx context.Context, userID string) (models.Preferences, bool, error) {
	var p models.Preferences

	data, err := c.client.Get(ctx, prefsKey(userID)).Bytes()
	if err == redis.Nil {
		return p, false, nil
	}
	if err != nil {
		return p, false, fmt.Errorf("failed to get preferences cache: %w", err)
	}

	if err := json.Unmarshal(data, &p); err != nil {
		return p, false, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}

	logger.Debug("Preferences cache hit", zap.String("user_id", userID))
	return p, true, nil
}

func (c *Client) SetPreferences(ctx context.Context, p models.Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	if err := c.client.Set(ctx, prefsKey(p.UserID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set preferences cache: %w", err)
	}

	return nil
}
