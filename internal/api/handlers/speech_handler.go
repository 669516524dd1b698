package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seesound/backend/internal/metrics"
	"github.com/seesound/backend/internal/speech"
	"github.com/seesound/backend/pkg/logger"
)

type SpeechHandler struct {
	client *speech.Client
}

func NewSpeechHandler(client *speech.Client) *SpeechHandler {
	return &SpeechHandler{client: client}
}

func (h *SpeechHandler) GetToken(c *fiber.Ctx) error {
	token, err := h.client.IssueToken(c.Context())
	if err != nil {
		metrics.SpeechTokenTotal.WithLabelValues("error").Inc()

		if errors.Is(err, speech.ErrNotConfigured) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Speech service not configured. Set SEESOUND_SPEECH_KEY.",
			})
		}

		logger.Error("Speech token request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	metrics.SpeechTokenTotal.WithLabelValues("success").Inc()
	return c.JSON(token)
}
