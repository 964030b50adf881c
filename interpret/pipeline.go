package interpret

import (
	"context"
	"log/slog"

	"github.com/poiesic/oneiro/retrieval"
)

// Pipeline runs the stages for one narrative.
type Pipeline struct {
	rewriter   *Rewriter
	fanout     *Fanout
	arbiter    *Arbiter
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewPipeline wires the stages over backends.
func NewPipeline(backends []retrieval.Backend, config Config) *Pipeline {
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}
	return &Pipeline{
		rewriter:   NewRewriter(),
		fanout:     NewFanout(backends, config.TopK),
		arbiter:    NewArbiter(names, config.ExcerptLength),
		aggregator: NewAggregator(),
		logger:     slog.Default().With("component", "pipeline"),
	}
}

// Run interprets narrative with the given session pair. Stage failures
// degrade the output; the only error returned is the context's.
func (p *Pipeline) Run(ctx context.Context, pair SessionPair, narrative string) (string, error) {
	return p.RunWithMonitor(ctx, pair, narrative, nil)
}

// RunWithMonitor is Run with a monitor that receives each stage's result.
func (p *Pipeline) RunWithMonitor(ctx context.Context, pair SessionPair, narrative string, monitor Monitor) (string, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(narrative)

	subQueries := p.rewriter.Rewrite(ctx, pair.Rewrite, narrative)
	for i, q := range subQueries {
		p.logger.Debug("sub-query", "subQuery", i+1, "text", q)
	}
	monitor.AfterRewrite(subQueries)

	table, err := p.fanout.Run(ctx, subQueries)
	if err != nil {
		return "", err
	}
	monitor.AfterFanout(table)

	selections := p.arbiter.Select(ctx, pair.Interpret, narrative, subQueries, table)
	monitor.AfterArbiter(selections)

	output := p.aggregator.BuildOutput(ctx, pair.Interpret, narrative, selections, subQueries, table)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	monitor.Finish(output)
	return output, nil
}
