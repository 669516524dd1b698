package vqa

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/seesound/backend/pkg/circuitbreaker"
	"github.com/seesound/backend/pkg/config"
	"github.com/seesound/backend/pkg/logger"
	"github.com/seesound/backend/pkg/retry"
)

// ErrNotReady is returned while initialization is pending, failed, or the
// adapter was never configured. The HTTP layer maps it to 503.
var ErrNotReady = errors.New("vqa model not ready")

const answerSystemPrompt = `You are a visual assistant for a blind or low-vision user wearing a camera.
Answer the user's question about the attached camera frame in one short sentence.
Be direct and concrete. If the image does not show enough to answer, say so plainly.`

// Adapter wraps a hosted vision model behind a question-answering call.
// It must be initialized once (Init) before Answer may be used; the server
// starts accepting requests before that completes.
type Adapter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	enabled     bool

	ready       atomic.Bool
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewAdapter(cfg config.VQAConfig) *Adapter {
	a := &Adapter{
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
		enabled:     cfg.APIKey != "",
	}

	if !a.enabled {
		logger.Warn("VQA adapter disabled: no API key configured")
		return a
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	a.client = openai.NewClientWithConfig(clientConfig)

	a.cb = circuitbreaker.New("vqa", circuitbreaker.Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		Logger:           logger.GetLogger(),
	})
	a.retryConfig = retry.DefaultConfig()
	a.retryConfig.Logger = logger.GetLogger()

	return a
}

// Init performs the one-time model warm-up. It verifies the configured model
// is reachable and flips the adapter ready. Safe to call from a goroutine
// after the server has started listening.
func (a *Adapter) Init(ctx context.Context) error {
	if !a.enabled {
		return fmt.Errorf("%w: adapter not configured", ErrNotReady)
	}

	logger.Info("Initializing VQA model", zap.String("model", a.model))

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if _, err := a.client.GetModel(ctx, a.model); err != nil {
		logger.Error("VQA model initialization failed", zap.String("model", a.model), zap.Error(err))
		return fmt.Errorf("failed to initialize vqa model: %w", err)
	}

	a.ready.Store(true)
	logger.Info("VQA model ready", zap.String("model", a.model))
	return nil
}

func (a *Adapter) Ready() bool {
	return a.ready.Load()
}

// Device identifies the inference backend for the health snapshot.
func (a *Adapter) Device() string {
	if !a.enabled {
		return "disabled"
	}
	return "remote:" + a.model
}

// Answer runs a single synchronous inference call for one camera frame.
func (a *Adapter) Answer(ctx context.Context, image []byte, question string) (string, error) {
	if !a.Ready() {
		return "", ErrNotReady
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		http.DetectContentType(image),
		base64.StdEncoding.EncodeToString(image),
	)

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: answerSystemPrompt,
		},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{
					Type: openai.ChatMessagePartTypeText,
					Text: question,
				},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailAuto,
					},
				},
			},
		},
	}

	var answer string

	err := a.cb.Execute(func() error {
		return retry.Do(ctx, a.retryConfig, func() error {
			resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       a.model,
				Messages:    messages,
				Temperature: a.temperature,
				MaxTokens:   a.maxTokens,
			})
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			if len(resp.Choices) == 0 {
				return fmt.Errorf("empty completion response")
			}

			logger.Debug("VQA completion generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			answer = strings.TrimSpace(resp.Choices[0].Message.Content)
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	return answer, nil
}
