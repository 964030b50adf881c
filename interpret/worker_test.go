package interpret

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/oneiro/ai/mock"
	"github.com/poiesic/oneiro/core"
	"github.com/poiesic/oneiro/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	snakeQuery = "In the dream a snake appeared"
	waterQuery = "In the dream I saw water"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.IdleInterval = 5 * time.Millisecond
	cfg.ErrorBackoff = 5 * time.Millisecond
	cfg.StopGrace = time.Second
	return cfg
}

func newTestWorker(t *testing.T, pair SessionPair, backends ...retrieval.Backend) (*Worker, *State) {
	t.Helper()
	state := NewState(NewSessionPool(pair), backends)
	w, err := NewWorker(state, NewPipeline(backends, testConfig()), testConfig())
	require.NoError(t, err)
	return w, state
}

// awaitResult polls Drain until a result arrives.
func awaitResult(t *testing.T, state *State) core.Result {
	t.Helper()
	var results []core.Result
	require.Eventually(t, func() bool {
		results = append(results, state.Drain()...)
		return len(results) > 0
	}, 2*time.Second, 5*time.Millisecond)
	require.Len(t, results, 1)
	return results[0]
}

func TestPipeline_SnakeAndWater(t *testing.T) {
	rewrite := mock.NewMockSession(snakeQuery + "\n" + waterQuery)
	interpret := mock.NewMockSession("Query 1: 1\nQuery 2: None", "Beware of hidden enemies.")
	first := newStubBackend("first").
		with(snakeQuery, "a snake in the grass", "hidden enemies", 0.1).
		with(waterQuery, "still water", "calm days", 0.3)
	second := newStubBackend("second")

	p := NewPipeline([]retrieval.Backend{first, second}, testConfig())
	got, err := p.Run(context.Background(), SessionPair{Rewrite: rewrite, Interpret: interpret}, "I saw a snake and water")
	require.NoError(t, err)

	assert.Contains(t, got, "**a snake appeared**: hidden enemies")
	assert.NotContains(t, got, "calm days")
	assert.NotContains(t, got, NoGeneralInterpretation)
	assert.True(t, strings.HasSuffix(got, OverallHeading+"\nBeware of hidden enemies."))

	prompts := interpret.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "Model 1 (first): Passage='a snake in the grass'")
	assert.NotContains(t, prompts[0], "Model 2 (second)")
}

func TestPipeline_NothingRetrieved(t *testing.T) {
	rewrite := mock.NewMockSession(snakeQuery + "\n" + waterQuery)
	interpret := mock.NewMockSession("Query 1: 1\nQuery 2: 1")

	p := NewPipeline([]retrieval.Backend{newStubBackend("a"), newStubBackend("b")}, testConfig())
	got, err := p.Run(context.Background(), SessionPair{Rewrite: rewrite, Interpret: interpret}, "I saw a snake")
	require.NoError(t, err)

	assert.Equal(t, NoSuitableInterpretation, got)
	// Only the arbiter was asked; no summary call
	assert.Equal(t, 1, interpret.CallCount())
}

func TestPipeline_ServiceUnavailable(t *testing.T) {
	failing := func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("service unavailable")
	}
	rewrite := mock.NewMockSession()
	rewrite.SendFunc = failing
	interpret := mock.NewMockSession()
	interpret.SendFunc = failing

	narrative := "I saw a snake"
	backend := newStubBackend("a").with(FallbackSubQuery(narrative), "a snake", "hidden enemies", 0.2)

	p := NewPipeline([]retrieval.Backend{newStubBackend("empty"), backend}, testConfig())
	got, err := p.Run(context.Background(), SessionPair{Rewrite: rewrite, Interpret: interpret}, narrative)
	require.NoError(t, err)

	assert.Contains(t, got, "**I saw a snake**: hidden enemies")
	assert.Contains(t, got, summaryFailedPrefix+"service unavailable")
	assert.Equal(t, 1, backend.queryCount())
}

func TestWorker_ProcessesQueue(t *testing.T) {
	pair := SessionPair{
		Rewrite:   mock.NewMockSession(snakeQuery),
		Interpret: mock.NewMockSession("Query 1: 1", "A warning."),
	}
	backend := newStubBackend("a").with(snakeQuery, "a snake", "hidden enemies", 0.1)
	w, state := newTestWorker(t, pair, backend)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	assert.Equal(t, Accepted, state.Enqueue("I saw a snake"))
	assert.Equal(t, Duplicate, state.Enqueue("I saw a snake"))

	result := awaitResult(t, state)
	assert.Equal(t, "I saw a snake", result.Narrative)
	assert.Contains(t, result.Interpretation, "**a snake appeared**: hidden enemies")

	stats := state.Stats()
	assert.Equal(t, Stats{QueueDepth: 0, UnreadResults: 0, ActiveBackends: 1, ActiveSessionPairs: 1}, stats)
}

func TestWorker_RecoversFromPanic(t *testing.T) {
	rewrite := mock.NewMockSession()
	rewrite.SendFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "explode") {
			panic("session state corrupted")
		}
		return snakeQuery, nil
	}
	pair := SessionPair{Rewrite: rewrite, Interpret: mock.NewMockSession("Query 1: None")}
	w, state := newTestWorker(t, pair, newStubBackend("a"))

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	state.Enqueue("explode")
	result := awaitResult(t, state)
	assert.Equal(t, ProcessingFailed, result.Interpretation)

	// The loop survives and handles the next narrative
	state.Enqueue("I saw a snake")
	result = awaitResult(t, state)
	assert.Equal(t, NoSuitableInterpretation, result.Interpretation)
}

func TestWorker_NoSessions(t *testing.T) {
	state := NewState(NewSessionPool(), nil)
	w, err := NewWorker(state, NewPipeline(nil, testConfig()), testConfig())
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	state.Enqueue("dream")
	assert.Equal(t, ProcessingFailed, awaitResult(t, state).Interpretation)
}

func TestWorker_StopCancelsAfterGrace(t *testing.T) {
	rewrite := mock.NewMockSession()
	rewrite.SendFunc = func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	pair := SessionPair{Rewrite: rewrite, Interpret: mock.NewMockSession()}

	cfg := testConfig()
	cfg.StopGrace = 20 * time.Millisecond
	state := NewState(NewSessionPool(pair), nil)
	w, err := NewWorker(state, NewPipeline(nil, cfg), cfg)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	state.Enqueue("a long dream")
	require.Eventually(t, func() bool { return rewrite.CallCount() == 1 }, time.Second, time.Millisecond)

	assert.ErrorIs(t, w.Stop(), ErrStopTimeout)
	<-w.Done()

	results := state.Drain()
	require.Len(t, results, 1)
	assert.Equal(t, ProcessingFailed, results[0].Interpretation)
}

func TestWorker_StopWhenIdle(t *testing.T) {
	w, _ := newTestWorker(t, SessionPair{}, newStubBackend("a"))

	assert.ErrorIs(t, w.Stop(), ErrNotStarted)
	require.NoError(t, w.Start(context.Background()))
	assert.ErrorIs(t, w.Start(context.Background()), ErrAlreadyStarted)

	start := time.Now()
	require.NoError(t, w.Stop())
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewWorker_Validation(t *testing.T) {
	state := NewState(NewSessionPool(), nil)
	pipeline := NewPipeline(nil, testConfig())

	_, err := NewWorker(nil, pipeline, testConfig())
	assert.ErrorIs(t, err, ErrStateRequired)

	_, err = NewWorker(state, nil, testConfig())
	assert.ErrorIs(t, err, ErrPipelineRequired)

	bad := testConfig()
	bad.TopK = 0
	_, err = NewWorker(state, pipeline, bad)
	assert.Error(t, err)
}

func TestInterpret(t *testing.T) {
	pair := SessionPair{
		Rewrite:   mock.NewMockSession(snakeQuery),
		Interpret: mock.NewMockSession("Query 1: 1", "Summary."),
	}
	backend := newStubBackend("a").with(snakeQuery, "a snake", "hidden enemies", 0.1)
	state := NewState(NewSessionPool(pair), []retrieval.Backend{backend})

	got, err := Interpret(context.Background(), state, NewPipeline(state.Backends, testConfig()), "I saw a snake", nil)
	require.NoError(t, err)
	assert.Contains(t, got, "hidden enemies")
	assert.Equal(t, 0, state.Queue.Depth())

	_, err = Interpret(context.Background(), NewState(NewSessionPool(), nil), NewPipeline(nil, testConfig()), "x", nil)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"topK", func(c *Config) { c.TopK = 0 }},
		{"excerpt", func(c *Config) { c.ExcerptLength = -1 }},
		{"idle", func(c *Config) { c.IdleInterval = 0 }},
		{"backoff", func(c *Config) { c.ErrorBackoff = -time.Second }},
		{"grace", func(c *Config) { c.StopGrace = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
