package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/seesound/backend/internal/speech"
	"github.com/seesound/backend/internal/vqa"
	"github.com/seesound/backend/pkg/config"
)

type HealthHandler struct {
	cfg         *config.Config
	adapter     *vqa.Adapter
	speech      *speech.Client
	storageMode string
}

func NewHealthHandler(cfg *config.Config, adapter *vqa.Adapter, speechClient *speech.Client, storageMode string) *HealthHandler {
	return &HealthHandler{
		cfg:         cfg,
		adapter:     adapter,
		speech:      speechClient,
		storageMode: storageMode,
	}
}

// HandleHealth reports the readiness snapshot. Field names match what the
// existing web client reads, so they stay as-is.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	speechKeyState := "missing"
	if h.speech.Enabled() {
		speechKeyState = "set"
	}

	return c.JSON(fiber.Map{
		"status":                 "running",
		"timestamp":              time.Now().Format(time.RFC3339),
		"blip_loaded":            h.adapter.Ready(),
		"azure_speech_available": h.speech.Enabled(),
		"azure_services":         h.cfg.StorageEnabled(),
		"device":                 h.adapter.Device(),
		"storage":                h.storageMode,
		"env_vars": fiber.Map{
			"SEESOUND_SPEECH_KEY":    speechKeyState,
			"SEESOUND_SPEECH_REGION": h.speech.Region(),
			"SEESOUND_SERVER_HOST":   h.cfg.Server.Host,
			"SEESOUND_SERVER_PORT":   fmt.Sprintf("%d", h.cfg.Server.Port),
		},
	})
}
