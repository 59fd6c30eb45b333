package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sahilchouksey/intern-track/utils/response"
)

type APIServer struct {
	app           *fiber.App
	listenAddress string
	logger        *zap.Logger
}

// NewAPIServer creates the fiber app. bodyLimit is in bytes; zero keeps
// fiber's default.
func NewAPIServer(listenAddress string, bodyLimit int, logger *zap.Logger) *APIServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIServer{
		app: fiber.New(fiber.Config{
			AppName:      "intern-track",
			BodyLimit:    bodyLimit,
			ErrorHandler: errorHandler(logger),
		}),
		listenAddress: listenAddress,
		logger:        logger,
	}
}

// errorHandler renders errors that escaped a handler in the usual envelope
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return response.Error(c, fe.Code, fe.Message, "HTTP_ERROR")
		}
		logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return response.FromError(c, err)
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	s.logger.Info("starting API server", zap.String("address", s.listenAddress))
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for open requests
func (s *APIServer) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
