package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/seesound/backend/internal/api/handlers"
	"github.com/seesound/backend/internal/metrics"
	"github.com/seesound/backend/internal/middleware/ratelimit"
	"github.com/seesound/backend/internal/middleware/security"
	"github.com/seesound/backend/internal/prefs"
	"github.com/seesound/backend/internal/speech"
	"github.com/seesound/backend/internal/vqa"
	"github.com/seesound/backend/pkg/config"
	"github.com/seesound/backend/pkg/logger"
)

// Deps are the request-serving collaborators, constructed in main and
// injected here. QueryLog may be nil in demo mode.
type Deps struct {
	Prefs       *prefs.Service
	QueryLog    handlers.QueryLog
	Adapter     *vqa.Adapter
	Speech      *speech.Client
	StorageMode string
}

type Server struct {
	app     *fiber.App
	limiter *ratelimit.RateLimiter
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(security.Headers())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 120,
		Logger:               logger.GetLogger(),
	})

	healthHandler := handlers.NewHealthHandler(cfg, deps.Adapter, deps.Speech, deps.StorageMode)
	vqaHandler := handlers.NewVQAHandler(deps.Adapter, deps.QueryLog)
	prefsHandler := handlers.NewPreferencesHandler(deps.Prefs, deps.QueryLog)
	speechHandler := handlers.NewSpeechHandler(deps.Speech)

	app.Get("/", healthHandler.HandleHealth)
	app.Get("/metrics", metrics.MetricsHandler())

	api := app.Group("/api", limiter.Middleware())
	api.Get("/speech-token", speechHandler.GetToken)
	api.Post("/vqa", vqaHandler.HandleVQA)
	api.Get("/preferences", prefsHandler.GetPreferences)
	api.Post("/preferences", prefsHandler.SavePreferences)
	api.Get("/preferences/history", prefsHandler.GetQueryHistory)

	return &Server{app: app, limiter: limiter}
}

// errorHandler is the process boundary: every handler error or recovered
// panic becomes a JSON envelope, never a raw stack trace.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	logger.Error("Unhandled request error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	s.limiter.Stop()
	return s.app.Shutdown()
}
