package interpret

import "github.com/poiesic/oneiro/core"

// Monitor observes the stages of a single pipeline run.
// Implement this interface to trace intermediate results.
type Monitor interface {
	Start(narrative string)
	AfterRewrite(subQueries []string)
	AfterFanout(table Table)
	AfterArbiter(selections core.Selections)
	Finish(output string)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                 {}
func (n *noopMonitor) AfterRewrite(_ []string)        {}
func (n *noopMonitor) AfterFanout(_ Table)            {}
func (n *noopMonitor) AfterArbiter(_ core.Selections) {}
func (n *noopMonitor) Finish(_ string)                {}
