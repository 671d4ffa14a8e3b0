package search

import (
	"github.com/poiesic/shopit/core"
)

// SearchMonitor provides hooks to observe the search process.
// Hooks may be called from several goroutines at once; implementations
// must be safe for concurrent use.
type SearchMonitor interface {
	Start(descriptors []core.ItemDescriptor)
	ProviderFinished(descriptor string, provenance core.Provenance, products int, err error)
	Degraded(descriptor string, products int)
	Filtered(descriptor string, before, after int)
	Rendered(target string, view *core.SearchView)
	RenderSkipped(target string, reason string)
	Finish(view *core.SearchView)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ []core.ItemDescriptor)                                {}
func (n *noopMonitor) ProviderFinished(_ string, _ core.Provenance, _ int, _ error) {}
func (n *noopMonitor) Degraded(_ string, _ int)                                     {}
func (n *noopMonitor) Filtered(_ string, _, _ int)                                  {}
func (n *noopMonitor) Rendered(_ string, _ *core.SearchView)                        {}
func (n *noopMonitor) RenderSkipped(_ string, _ string)                             {}
func (n *noopMonitor) Finish(_ *core.SearchView)                                    {}
