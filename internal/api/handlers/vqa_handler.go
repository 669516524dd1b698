package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seesound/backend/internal/metrics"
	"github.com/seesound/backend/internal/storage/models"
	"github.com/seesound/backend/internal/vqa"
	"github.com/seesound/backend/pkg/logger"
)

// QueryLog is the audit trail written after each answered question.
// Appends are fire-and-forget: a failed write never affects the response.
type QueryLog interface {
	LogQuery(ctx context.Context, userID, question, answer string) error
	QueryHistory(ctx context.Context, userID string, limit int) ([]models.QueryLogEntry, error)
}

type VQAHandler struct {
	adapter  *vqa.Adapter
	queryLog QueryLog
}

func NewVQAHandler(adapter *vqa.Adapter, queryLog QueryLog) *VQAHandler {
	return &VQAHandler{
		adapter:  adapter,
		queryLog: queryLog,
	}
}

func (h *VQAHandler) HandleVQA(c *fiber.Ctx) error {
	var req struct {
		ImageBase64 string `json:"imageBase64"`
		Question    string `json:"question"`
		UserID      string `json:"user_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse VQA request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ImageBase64 == "" || req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing imageBase64 or question",
		})
	}

	if !h.adapter.Ready() {
		metrics.VQATotal.WithLabelValues("not_ready").Inc()
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "VQA model not loaded yet. Wait for initialization.",
		})
	}

	requestID := uuid.New().String()
	userID := req.UserID
	if userID == "" {
		userID = models.DefaultUserID
	}

	logger.Info("Processing VQA request",
		zap.String("request_id", requestID),
		zap.String("user_id", userID),
		zap.String("question", req.Question),
		zap.Int("image_chars", len(req.ImageBase64)),
	)

	image, err := vqa.DecodeBase64Image(req.ImageBase64)
	if err != nil {
		metrics.VQATotal.WithLabelValues("decode_error").Inc()
		logger.Error("Image decode failed", zap.String("request_id", requestID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "VQA processing failed: " + err.Error(),
		})
	}

	start := time.Now()
	answer, err := h.adapter.Answer(c.Context(), image, req.Question)
	latency := time.Since(start)

	if err != nil {
		if errors.Is(err, vqa.ErrNotReady) {
			metrics.VQATotal.WithLabelValues("not_ready").Inc()
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "VQA model not loaded yet. Wait for initialization.",
			})
		}
		metrics.VQATotal.WithLabelValues("error").Inc()
		logger.Error("VQA inference failed", zap.String("request_id", requestID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "VQA processing failed: " + err.Error(),
		})
	}

	metrics.VQATotal.WithLabelValues("success").Inc()
	metrics.VQADuration.Observe(latency.Seconds())

	logger.Info("VQA answered",
		zap.String("request_id", requestID),
		zap.String("answer", answer),
		zap.Duration("latency", latency),
	)

	// Audit logging happens off the request path; the response is already
	// decided by this point.
	if h.queryLog != nil {
		question := req.Question
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := h.queryLog.LogQuery(ctx, userID, question, answer); err != nil {
				metrics.QueryLogFailures.Inc()
				logger.Warn("Query log append dropped",
					zap.String("request_id", requestID),
					zap.Error(err),
				)
			}
		}()
	}

	return c.JSON(fiber.Map{
		"answer": answer,
	})
}
