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


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/oneiro"
	"github.com/poiesic/oneiro/config"
	"github.com/poiesic/oneiro/interpret"
	"github.com/poiesic/oneiro/server"
	"github.com/urfave/cli/v2"
)

// shutdownTimeout bounds how long in-flight HTTP requests may run after a
// stop signal.
const shutdownTimeout = 5 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "oneiro",
		Usage: "Dream interpretation over multiple retrieval backends",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   config.DefaultFile,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with credentials",
				Value: ".env",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the worker and the HTTP server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Load the source dataset into every backend",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-embed every row even if the dataset is unchanged",
					},
				},
			},
			{
				Name:      "interpret",
				Usage:     "Interpret a single narrative and print the result",
				ArgsUsage: "<narrative>",
				Action:    interpretCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print each pipeline stage to stderr",
					},
				},
			},
			{
				Name:   "config",
				Usage:  "Print the default configuration file",
				Action: configCommand,
			},
		},
	}
}

func setup(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	return config.LoadEnv(c.String("env-file"))
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	svc, err := oneiro.NewService(ctx, cfg, oneiro.WithProgress(os.Stderr))
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Close()

	// The worker outlives the signal context so Stop can apply its grace period
	if err := svc.Start(context.Background()); err != nil {
		return err
	}

	srv := server.New(svc, server.Config{
		Addr:         cfg.Server.Addr,
		AllowOrigins: cfg.Server.AllowOrigins,
	})
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- srv.Listen()
	}()

	select {
	case err = <-listenErr:
		if err != nil {
			err = fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			slog.Error("error shutting down server", "err", serr)
		}
		cancel()
	}

	if serr := svc.Stop(); serr != nil {
		slog.Warn("worker stopped with error", "err", serr)
	}
	return err
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	svc, err := oneiro.NewService(ctx, cfg,
		oneiro.WithoutBootstrap(),
		oneiro.WithoutSessions(),
		oneiro.WithProgress(os.Stderr))
	if err != nil {
		return fmt.Errorf("failed to open backends: %w", err)
	}
	defer svc.Close()

	fmt.Fprintf(os.Stderr, "Source: %s\n", cfg.Source.Path)
	fmt.Fprintf(os.Stderr, "Data directory: %s\n", cfg.DataDir)
	fmt.Fprintln(os.Stderr)

	reports, err := svc.Ingest(ctx, c.Bool("force"))
	for _, r := range reports {
		if r.Skipped {
			fmt.Fprintf(os.Stderr, "%s: unchanged, skipped\n", r.Target)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: embedded %d, wrote %d of %d rows in %s\n",
			r.Target, r.Embedded, r.Written, r.Total, r.Elapsed.Round(time.Millisecond))
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func interpretCommand(c *cli.Context) error {
	narrative := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(narrative) == "" {
		return errors.New("a narrative is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	svc, err := oneiro.NewService(ctx, cfg, oneiro.WithProgress(os.Stderr))
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Close()

	var monitor interpret.Monitor
	if c.Bool("trace") {
		monitor = newTraceMonitor(os.Stderr, svc.Backends())
	}
	result, err := svc.InterpretWithMonitor(ctx, narrative, monitor)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, result)
	return nil
}

func configCommand(c *cli.Context) error {
	_, err := fmt.Fprint(c.App.Writer, config.DefaultYAML())
	return err
}
