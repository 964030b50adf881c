// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/poiesic/oneiro/core"
	"github.com/poiesic/oneiro/interpret"
)

// Interpreter is the queue the server fronts.
type Interpreter interface {
	Enqueue(narrative string) interpret.EnqueueStatus
	Drain() []core.Result
	Stats() interpret.Stats
}

// Config configures the HTTP server.
type Config struct {
	Addr         string
	AllowOrigins string // Comma-separated; "*" allows any origin
}

// Server is the HTTP front end.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger
}

// New creates a server over interpreter.
func New(interpreter Interpreter, config Config) *Server {
	logger := slog.Default().With("component", "server")

	app := fiber.New(fiber.Config{
		AppName:               "oneiro",
		BodyLimit:             1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				logger.Error("request failed", "path", c.Path(), "err", err)
			}
			return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
		},
	})

	origins := config.AllowOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	newDreamController(interpreter, logger).RegisterRoutes(app)

	return &Server{
		app:    app,
		addr:   config.Addr,
		logger: logger,
	}
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until Shutdown is called.
func (s *Server) Listen() error {
	s.logger.Info("server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// Shutdown stops accepting requests and waits for active ones until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
