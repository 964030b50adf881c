package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/oneiro/ai"
	"github.com/poiesic/oneiro/ingestion"
	"github.com/poiesic/oneiro/interpret"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "oneiro.yaml"

const defaultConfigYAML = `# oneiro configuration
data_dir: ./data

# Environment variables holding completion service credentials.
# One rewrite/interpret session pair is created per credential.
credentials_env:
  - GOOGLE_API_KEY_1
  - GOOGLE_API_KEY_2
  - GOOGLE_API_KEY_3
  - GOOGLE_API_KEY_4

llm:
  chat_host: https://generativelanguage.googleapis.com/v1beta/openai
  chat_model: gemini-2.0-flash
  embedding_host: http://localhost:11434/v1
  temperature: 0.7
  request_delay: 1s
  call_timeout: 60s
  history_limit: 20

# Each backend is an independent index over the same dataset.
backends:
  - name: DistilUSE
    embedding_model: distiluse-base-multilingual-cased-v1
    collection: dreams_distiluse
  - name: BERT-Turkish
    embedding_model: emrecan/bert-base-turkish-cased-mean-nli-stsb-tr
    collection: dreams_bert_turkish
  - name: PubMedBERT
    embedding_model: NeuML/pubmedbert-base-embeddings
    collection: dreams_pubmed
  - name: GIST
    embedding_model: avsolatorio/GIST-small-Embedding-v0
    collection: dreams_gist

worker:
  top_k: 5
  excerpt_length: 100
  idle_interval: 5s
  error_backoff: 10s
  stop_grace: 10s

server:
  addr: ":5000"
  allow_origins: "*"

source:
  path: ./data/dreams.csv
  narrative_column: narrative
  interpretation_column: interpretation
  batch_size: 4000
`

// Backend declares one retrieval backend.
type Backend struct {
	Name           string `yaml:"name"`
	EmbeddingModel string `yaml:"embedding_model"`
	Collection     string `yaml:"collection"`
}

// LLM configures the completion and embedding services.
type LLM struct {
	ChatHost      string        `yaml:"chat_host"`
	ChatModel     string        `yaml:"chat_model"`
	EmbeddingHost string        `yaml:"embedding_host"`
	Temperature   float64       `yaml:"temperature"`
	RequestDelay  time.Duration `yaml:"request_delay"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
	HistoryLimit  int           `yaml:"history_limit"`
}

// Worker configures the interpretation pipeline.
type Worker struct {
	TopK          int           `yaml:"top_k"`
	ExcerptLength int           `yaml:"excerpt_length"`
	IdleInterval  time.Duration `yaml:"idle_interval"`
	ErrorBackoff  time.Duration `yaml:"error_backoff"`
	StopGrace     time.Duration `yaml:"stop_grace"`
}

// Server configures the HTTP surface.
type Server struct {
	Addr         string `yaml:"addr"`
	AllowOrigins string `yaml:"allow_origins"`
}

// Source describes the dataset used to load the backends.
type Source struct {
	Path                 string `yaml:"path"`
	NarrativeColumn      string `yaml:"narrative_column"`
	InterpretationColumn string `yaml:"interpretation_column"`
	BatchSize            int    `yaml:"batch_size"`
}

// Config models oneiro.yaml.
type Config struct {
	DataDir        string    `yaml:"data_dir"`
	CredentialsEnv []string  `yaml:"credentials_env"`
	LLM            LLM       `yaml:"llm"`
	Backends       []Backend `yaml:"backends"`
	Worker         Worker    `yaml:"worker"`
	Server         Server    `yaml:"server"`
	Source         Source    `yaml:"source"`
}

// Default returns the default configuration.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &cfg); err != nil {
		panic(fmt.Sprintf("config: invalid default configuration: %v", err))
	}
	return &cfg
}

// DefaultYAML returns the annotated default configuration file.
func DefaultYAML() string {
	return defaultConfigYAML
}

// Load reads path over the defaults and validates the result. A missing
// file is not an error. An empty path means DefaultFile.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults
	case err != nil:
		return nil, err
	default:
		// A list in the file replaces the default list
		cfg.Backends = nil
		cfg.CredentialsEnv = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if cfg.Backends == nil {
			cfg.Backends = Default().Backends
		}
		if cfg.CredentialsEnv == nil {
			cfg.CredentialsEnv = Default().CredentialsEnv
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads variables from .env files into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if len(c.CredentialsEnv) == 0 {
		errs = append(errs, errors.New("credentials_env must name at least one variable"))
	}
	if len(c.Backends) == 0 {
		errs = append(errs, errors.New("at least one backend is required"))
	}
	names := make(map[string]bool)
	collections := make(map[string]bool)
	for i, b := range c.Backends {
		switch {
		case b.Name == "":
			errs = append(errs, fmt.Errorf("backends[%d]: name is required", i))
		case names[b.Name]:
			errs = append(errs, fmt.Errorf("backends[%d]: duplicate name %q", i, b.Name))
		}
		names[b.Name] = true
		if b.EmbeddingModel == "" {
			errs = append(errs, fmt.Errorf("backends[%d]: embedding_model is required", i))
		}
		switch {
		case b.Collection == "":
			errs = append(errs, fmt.Errorf("backends[%d]: collection is required", i))
		case collections[b.Collection]:
			errs = append(errs, fmt.Errorf("backends[%d]: duplicate collection %q", i, b.Collection))
		case b.Collection != filepath.Base(b.Collection):
			errs = append(errs, fmt.Errorf("backends[%d]: collection %q must be a plain name", i, b.Collection))
		}
		collections[b.Collection] = true
	}
	if err := c.AIConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.InterpretConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Source.BatchSize < 1 {
		errs = append(errs, errors.New("source.batch_size must be positive"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Credentials returns the non-empty values of the configured variables,
// in order.
func (c *Config) Credentials() []string {
	var credentials []string
	for _, name := range c.CredentialsEnv {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			credentials = append(credentials, v)
		}
	}
	return credentials
}

// AIConfig converts the llm section.
func (c *Config) AIConfig() *ai.Config {
	cfg := ai.NewConfig(
		ai.WithChatHost(c.LLM.ChatHost),
		ai.WithEmbeddingHost(c.LLM.EmbeddingHost),
		ai.WithChatModel(c.LLM.ChatModel),
		ai.WithTemperature(c.LLM.Temperature),
		ai.WithRequestDelay(c.LLM.RequestDelay),
		ai.WithCallTimeout(c.LLM.CallTimeout),
		ai.WithHistoryLimit(c.LLM.HistoryLimit),
	)
	return cfg
}

// InterpretConfig converts the worker section.
func (c *Config) InterpretConfig() interpret.Config {
	return interpret.Config{
		TopK:          c.Worker.TopK,
		ExcerptLength: c.Worker.ExcerptLength,
		IdleInterval:  c.Worker.IdleInterval,
		ErrorBackoff:  c.Worker.ErrorBackoff,
		StopGrace:     c.Worker.StopGrace,
	}
}

// Columns returns the source column headers.
func (c *Config) Columns() ingestion.Columns {
	return ingestion.Columns{
		Narrative:      c.Source.NarrativeColumn,
		Interpretation: c.Source.InterpretationColumn,
	}
}

// CollectionPath returns the storage directory of a backend.
func (c *Config) CollectionPath(b Backend) string {
	return filepath.Join(c.DataDir, b.Collection)
}
