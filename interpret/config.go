package interpret

import (
	"errors"
	"time"
)

// Config holds the pipeline and worker settings.
type Config struct {
	TopK          int           // Matches requested per backend query
	ExcerptLength int           // Runes of passage and interpretation shown to the arbiter
	IdleInterval  time.Duration // Sleep when the queue is empty
	ErrorBackoff  time.Duration // Sleep after a job failed outright
	StopGrace     time.Duration // Time in-flight work gets to finish on Stop
}

// DefaultConfig returns the standard settings.
func DefaultConfig() Config {
	return Config{
		TopK:          5,
		ExcerptLength: 100,
		IdleInterval:  5 * time.Second,
		ErrorBackoff:  10 * time.Second,
		StopGrace:     10 * time.Second,
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.TopK < 1 {
		return errors.New("interpret config: TopK must be at least 1")
	}
	if c.ExcerptLength < 0 {
		return errors.New("interpret config: ExcerptLength cannot be negative")
	}
	if c.IdleInterval <= 0 {
		return errors.New("interpret config: IdleInterval must be positive")
	}
	if c.ErrorBackoff < 0 {
		return errors.New("interpret config: ErrorBackoff cannot be negative")
	}
	if c.StopGrace < 0 {
		return errors.New("interpret config: StopGrace cannot be negative")
	}
	return nil
}
