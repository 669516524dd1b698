package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seesound/backend/internal/metrics"
	"github.com/seesound/backend/internal/prefs"
	"github.com/seesound/backend/internal/storage/models"
	"github.com/seesound/backend/pkg/logger"
)

type PreferencesHandler struct {
	prefs    *prefs.Service
	queryLog QueryLog
}

func NewPreferencesHandler(prefsService *prefs.Service, queryLog QueryLog) *PreferencesHandler {
	return &PreferencesHandler{
		prefs:    prefsService,
		queryLog: queryLog,
	}
}

func (h *PreferencesHandler) GetPreferences(c *fiber.Ctx) error {
	userID := c.Query("user_id", models.DefaultUserID)

	p := h.prefs.Get(c.Context(), userID)
	return c.JSON(p)
}

// SavePreferences accepts any subset of the preference fields. Omitted fields
// take the documented defaults rather than the currently stored values.
func (h *PreferencesHandler) SavePreferences(c *fiber.Ctx) error {
	var req struct {
		UserID               *string  `json:"user_id"`
		TTSSpeed             *float64 `json:"tts_speed"`
		AnnouncementInterval *int     `json:"announcement_interval"`
		PriorityMode         *string  `json:"priority_mode"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse preferences body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	p := models.DefaultPreferences("")
	if req.UserID != nil && *req.UserID != "" {
		p.UserID = *req.UserID
	}
	if req.TTSSpeed != nil {
		p.TTSSpeed = *req.TTSSpeed
	}
	if req.AnnouncementInterval != nil {
		p.AnnouncementInterval = *req.AnnouncementInterval
	}
	if req.PriorityMode != nil && *req.PriorityMode != "" {
		p.PriorityMode = *req.PriorityMode
	}

	saved := h.prefs.Save(c.Context(), p)
	metrics.PreferencesSaved.Inc()

	return c.JSON(fiber.Map{
		"success":     true,
		"preferences": saved,
	})
}

func (h *PreferencesHandler) GetQueryHistory(c *fiber.Ctx) error {
	userID := c.Query("user_id", models.DefaultUserID)
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if h.queryLog == nil {
		return c.JSON(fiber.Map{"history": []models.QueryLogEntry{}})
	}

	entries, err := h.queryLog.QueryHistory(c.Context(), userID, limit)
	if err != nil {
		logger.Error("Failed to read query history", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read query history",
		})
	}
	if entries == nil {
		entries = []models.QueryLogEntry{}
	}

	return c.JSON(fiber.Map{"history": entries})
}
