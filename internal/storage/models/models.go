package models

import "time"

const (
	DefaultUserID               = "default_user"
	DefaultTTSSpeed             = 1.0
	DefaultAnnouncementInterval = 10
	DefaultPriorityMode         = "dynamic"
)

type Preferences struct {
	UserID               string  `json:"user_id"`
	TTSSpeed             float64 `json:"tts_speed"`
	AnnouncementInterval int     `json:"announcement_interval"`
	PriorityMode         string  `json:"priority_mode"`
}

// DefaultPreferences is the record returned for users that have never saved,
// and the source of values for fields omitted from a save request.
func DefaultPreferences(userID string) Preferences {
	if userID == "" {
		userID = DefaultUserID
	}
	return Preferences{
		UserID:               userID,
		TTSSpeed:             DefaultTTSSpeed,
		AnnouncementInterval: DefaultAnnouncementInterval,
		PriorityMode:         DefaultPriorityMode,
	}
}

type QueryLogEntry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}
