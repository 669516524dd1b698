package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/seesound/backend/internal/storage/models"
	"github.com/seesound/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_preferences (
		user_id TEXT PRIMARY KEY,
		tts_speed REAL NOT NULL DEFAULT 1.0,
		announcement_interval INTEGER NOT NULL DEFAULT 10,
		priority_mode TEXT NOT NULL DEFAULT 'dynamic',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS query_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_user ON query_history(user_id);
	CREATE INDEX IF NOT EXISTS idx_query_timestamp ON query_history(timestamp);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) GetPreferences(ctx context.Context, userID string) (models.Preferences, error) {
	query := `SELECT tts_speed, announcement_interval, priority_mode FROM user_preferences WHERE user_id = ?`

	p := models.Preferences{UserID: userID}
	err := c.db.QueryRowContext(ctx, query, userID).Scan(
		&p.TTSSpeed,
		&p.AnnouncementInterval,
		&p.PriorityMode,
	)
	if err == sql.ErrNoRows {
		return models.DefaultPreferences(userID), nil
	}
	if err != nil {
		return models.DefaultPreferences(userID), fmt.Errorf("failed to get preferences: %w", err)
	}

	return p, nil
}

// SavePreferences upserts the full record. Repeated saves with identical
// values only touch updated_at.
func (c *Client) SavePreferences(ctx context.Context, p models.Preferences) error {
	query := `
		INSERT INTO user_preferences (user_id, tts_speed, announcement_interval, priority_mode, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			tts_speed = excluded.tts_speed,
			announcement_interval = excluded.announcement_interval,
			priority_mode = excluded.priority_mode,
			updated_at = excluded.updated_at
	`

	now := time.Now().Unix()
	_, err := c.db.ExecContext(ctx, query,
		p.UserID,
		p.TTSSpeed,
		p.AnnouncementInterval,
		p.PriorityMode,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	logger.Debug("Preferences saved", zap.String("user_id", p.UserID))
	return nil
}

func (c *Client) LogQuery(ctx context.Context, userID, question, answer string) error {
	query := `INSERT INTO query_history (user_id, question, answer, timestamp) VALUES (?, ?, ?, ?)`

	_, err := c.db.ExecContext(ctx, query, userID, question, answer, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to log query: %w", err)
	}

	return nil
}

func (c *Client) QueryHistory(ctx context.Context, userID string, limit int) ([]models.QueryLogEntry, error) {
	query := `
		SELECT id, user_id, question, answer, timestamp
		FROM query_history
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get query history: %w", err)
	}
	defer rows.Close()

	var entries []models.QueryLogEntry
	for rows.Next() {
		var e models.QueryLogEntry
		var ts int64

		if err := rows.Scan(&e.ID, &e.UserID, &e.Question, &e.Answer, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		e.Timestamp = time.Unix(ts, 0)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// PruneQueryHistory deletes log entries older than the retention window.
// A non-positive retention keeps everything.
func (c *Client) PruneQueryHistory(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()
	res, err := c.db.ExecContext(ctx, `DELETE FROM query_history WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune query history: %w", err)
	}

	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		logger.Info("Query history pruned",
			zap.Int64("deleted", deleted),
			zap.Int("retention_days", retentionDays),
		)
	}

	return deleted, nil
}
