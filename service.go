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


package oneiro

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/poiesic/oneiro/ai"
	"github.com/poiesic/oneiro/ai/openai"
	"github.com/poiesic/oneiro/config"
	"github.com/poiesic/oneiro/core"
	"github.com/poiesic/oneiro/ingestion"
	"github.com/poiesic/oneiro/interpret"
	"github.com/poiesic/oneiro/retrieval"
	"github.com/poiesic/oneiro/server"
	"github.com/poiesic/oneiro/storage/badger"
)

var (
	// ErrConfigRequired indicates NewService was called without a configuration.
	ErrConfigRequired = errors.New("config required")
)

var _ server.Interpreter = (*Service)(nil)

// Service owns the backends, the session pool and the worker.
type Service struct {
	config      *config.Config
	collections []*collection
	backends    []retrieval.Backend
	state       *interpret.State
	pipeline    *interpret.Pipeline
	worker      *interpret.Worker
	progress    io.Writer
	logger      *slog.Logger
}

// collection is an opened backend with its storage.
type collection struct {
	backend   config.Backend
	storage   *badger.Backend
	passages  *badger.PassageRepository
	manifests *badger.ManifestRepository
	embedder  ai.Embedder
}

func (c *collection) target() ingestion.Target {
	return ingestion.Target{
		Name:           c.backend.Collection,
		EmbeddingModel: c.backend.EmbeddingModel,
		Passages:       c.passages,
		Manifests:      c.manifests,
		Embedder:       c.embedder,
	}
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	sessions    ai.SessionFactory
	embedders   ai.EmbedderFactory
	credentials []string
	inMemory    bool
	bootstrap   bool
	noSessions  bool
	progress    io.Writer
}

// WithSessionFactory replaces the OpenAI-compatible session factory.
func WithSessionFactory(factory ai.SessionFactory) ServiceOption {
	return func(o *serviceOptions) {
		o.sessions = factory
	}
}

// WithEmbedderFactory replaces the OpenAI-compatible embedder factory.
func WithEmbedderFactory(factory ai.EmbedderFactory) ServiceOption {
	return func(o *serviceOptions) {
		o.embedders = factory
	}
}

// WithCredentials overrides the credentials read from the environment.
func WithCredentials(credentials ...string) ServiceOption {
	return func(o *serviceOptions) {
		o.credentials = append([]string{}, credentials...)
	}
}

// WithInMemoryStorage keeps every collection in memory. Used by tests.
func WithInMemoryStorage() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// WithoutBootstrap skips loading empty collections from the source file.
func WithoutBootstrap() ServiceOption {
	return func(o *serviceOptions) {
		o.bootstrap = false
	}
}

// WithoutSessions skips creating session pairs. The service can ingest
// but every interpretation fails with interpret.ErrNoSession.
func WithoutSessions() ServiceOption {
	return func(o *serviceOptions) {
		o.noSessions = true
	}
}

// WithProgress writes ingestion progress to w.
func WithProgress(w io.Writer) ServiceOption {
	return func(o *serviceOptions) {
		o.progress = w
	}
}

// NewService opens every configured backend and builds the session pool.
// A backend that cannot be opened is kept as an unavailable backend. Empty
// collections are loaded from the configured source file when it exists.
// At least one session pair must be created.
func NewService(ctx context.Context, cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &serviceOptions{bootstrap: true}
	for _, opt := range opts {
		opt(options)
	}
	if options.sessions == nil || options.embedders == nil {
		provider, err := openai.NewProvider(cfg.AIConfig())
		if err != nil {
			return nil, err
		}
		if options.sessions == nil {
			options.sessions = provider
		}
		if options.embedders == nil {
			options.embedders = provider
		}
	}
	if options.credentials == nil {
		options.credentials = cfg.Credentials()
	}

	s := &Service{
		config:   cfg,
		progress: options.progress,
		logger:   slog.Default().With("component", "service"),
	}

	for _, b := range cfg.Backends {
		backend, coll := s.openBackend(b, options)
		s.backends = append(s.backends, backend)
		if coll != nil {
			s.collections = append(s.collections, coll)
		}
	}

	if options.bootstrap {
		s.bootstrap(ctx)
	}

	sessions := interpret.NewSessionPool()
	if !options.noSessions {
		var err error
		sessions, err = interpret.OpenSessionPool(ctx, options.sessions, options.credentials)
		if err != nil {
			s.closeCollections()
			return nil, err
		}
	}

	s.state = interpret.NewState(sessions, s.backends)
	s.pipeline = interpret.NewPipeline(s.backends, cfg.InterpretConfig())
	var err error
	s.worker, err = interpret.NewWorker(s.state, s.pipeline, cfg.InterpretConfig())
	if err != nil {
		s.closeCollections()
		return nil, err
	}

	s.logger.Info("service ready",
		"backends", len(s.backends),
		"activeBackends", retrieval.CountAvailable(s.backends),
		"sessionPairs", sessions.Len())
	return s, nil
}

// openBackend returns the retrieval backend for b. The collection is nil
// when the backend is degraded.
func (s *Service) openBackend(b config.Backend, options *serviceOptions) (retrieval.Backend, *collection) {
	logger := s.logger.With("backend", b.Name)

	embedder, err := options.embedders.NewEmbedder(b.EmbeddingModel)
	if err != nil {
		logger.Error("failed to create embedder, backend unavailable", "model", b.EmbeddingModel, "err", err)
		return retrieval.Unavailable(b.Name, err), nil
	}

	path := ""
	if !options.inMemory {
		path = s.config.CollectionPath(b)
	}
	store, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		logger.Error("failed to open collection, backend unavailable", "path", path, "err", err)
		return retrieval.Unavailable(b.Name, err), nil
	}

	coll := &collection{
		backend:   b,
		storage:   store,
		passages:  badger.NewPassageRepository(store),
		manifests: badger.NewManifestRepository(store),
		embedder:  embedder,
	}
	backend, err := retrieval.NewVectorBackend(b.Name, embedder, coll.passages)
	if err != nil {
		store.Close()
		return retrieval.Unavailable(b.Name, err), nil
	}
	return backend, coll
}

// bootstrap loads empty collections from the source file. Failures leave
// the collections empty; they are logged and never fatal.
func (s *Service) bootstrap(ctx context.Context) {
	var empty []ingestion.Target
	for _, c := range s.collections {
		n, err := c.passages.CountPassages(ctx)
		if err != nil {
			s.logger.Error("failed to count passages", "backend", c.backend.Name, "err", err)
			continue
		}
		if n == 0 {
			empty = append(empty, c.target())
		}
	}
	if len(empty) == 0 {
		return
	}

	dataset, err := ingestion.ReadCSVFile(s.config.Source.Path, s.config.Columns())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("collections are empty and no source file exists", "path", s.config.Source.Path, "empty", len(empty))
		} else {
			s.logger.Error("failed to read source file", "path", s.config.Source.Path, "err", err)
		}
		return
	}

	s.logger.Info("loading empty collections", "collections", len(empty), "rows", len(dataset.Rows))
	if _, err := s.load(ctx, dataset, empty, false); err != nil {
		s.logger.Error("failed to load collections", "err", err)
	}
}

// Ingest loads the configured source file into every open collection.
// Collections whose manifest matches the file are skipped unless force is set.
func (s *Service) Ingest(ctx context.Context, force bool) ([]ingestion.Report, error) {
	dataset, err := ingestion.ReadCSVFile(s.config.Source.Path, s.config.Columns())
	if err != nil {
		return nil, err
	}
	targets := make([]ingestion.Target, len(s.collections))
	for i, c := range s.collections {
		targets[i] = c.target()
	}
	return s.load(ctx, dataset, targets, force)
}

func (s *Service) load(ctx context.Context, dataset *ingestion.Dataset, targets []ingestion.Target, force bool) ([]ingestion.Report, error) {
	loaderOpts := []ingestion.Option{
		ingestion.WithPoolSize(len(targets)),
		ingestion.WithBatchSize(s.config.Source.BatchSize),
	}
	if s.progress != nil {
		loaderOpts = append(loaderOpts, ingestion.WithProgress(s.progress))
	}
	loader, err := ingestion.NewLoader(loaderOpts...)
	if err != nil {
		return nil, err
	}
	defer loader.Release()
	return loader.Load(ctx, dataset, targets, force)
}

// Start launches the background worker.
func (s *Service) Start(ctx context.Context) error {
	return s.worker.Start(ctx)
}

// Stop stops the worker, waiting up to the configured grace period.
func (s *Service) Stop() error {
	return s.worker.Stop()
}

// Enqueue submits a narrative for background interpretation.
func (s *Service) Enqueue(narrative string) interpret.EnqueueStatus {
	return s.state.Enqueue(narrative)
}

// Drain returns and forgets every completed interpretation.
func (s *Service) Drain() []core.Result {
	return s.state.Drain()
}

// Stats reports queue and resource counts.
func (s *Service) Stats() interpret.Stats {
	return s.state.Stats()
}

// Interpret runs the pipeline synchronously, bypassing the queue.
func (s *Service) Interpret(ctx context.Context, narrative string) (string, error) {
	return s.InterpretWithMonitor(ctx, narrative, nil)
}

// InterpretWithMonitor is Interpret with a monitor that observes each stage.
func (s *Service) InterpretWithMonitor(ctx context.Context, narrative string, monitor interpret.Monitor) (string, error) {
	if err := core.ValidateNarrative(narrative); err != nil {
		return "", err
	}
	return interpret.Interpret(ctx, s.state, s.pipeline, narrative, monitor)
}

// Backends returns the retrieval backends in configuration order.
func (s *Service) Backends() []retrieval.Backend {
	return s.backends
}

// Close stops the worker if it is running and closes every collection.
func (s *Service) Close() error {
	if err := s.worker.Stop(); err != nil && !errors.Is(err, interpret.ErrNotStarted) {
		s.logger.Error("error stopping worker", "err", err)
	}
	return s.closeCollections()
}

func (s *Service) closeCollections() error {
	var errs []error
	for _, c := range s.collections {
		if err := c.passages.Close(); err != nil {
			errs = append(errs, err)
		}
		if !c.storage.IsClosed() {
			if err := c.storage.Close(); err != nil {
				s.logger.Error("error closing collection", "backend", c.backend.Name, "err", err)
				errs = append(errs, fmt.Errorf("%s: %w", c.backend.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

