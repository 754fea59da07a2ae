// SPDX-License-Identifier: MPL-2.0

package router

import (
	"fmt"
	"slices"

	"github.com/skeleton-dev/skeleton/pkg/container"
	"github.com/skeleton-dev/skeleton/pkg/decl"
)

// providers implements Providers for one materialization. The first lookup
// failure is kept in err and reported after the factory returns.
type providers struct {
	r     *Router
	node  decl.NodeID
	entry *Entry
	err   error
	// detached holds feature containers created for explicit dependencies on
	// features that were not on the stack. They live as long as the entry.
	detached []*container.Container
	// visiting guards detached feature construction against cycles.
	visiting map[decl.NodeID]bool
}

func (p *providers) fail(provider decl.NodeID, format string, args ...any) *container.Container {
	if p.err == nil {
		p.err = &ProviderError{Node: p.node, Provider: provider, Reason: fmt.Sprintf(format, args...)}
	}
	return nil
}

func (p *providers) Singleton(id decl.NodeID) *container.Container {
	c, ok := p.r.singletons[id]
	if !ok {
		return p.fail(id, "no such singleton")
	}
	return c
}

func (p *providers) Parent() *container.Container {
	if p.entry == nil || p.entry.parent == nil {
		return p.fail("", "node has no owning feature entry")
	}
	c, active := p.entry.parent.activeContainer()
	if !active {
		return p.fail(p.entry.parent.route.Node, "owning feature entry is %s", p.entry.parent.State())
	}
	return c
}

// Feature returns the topmost active entry of feature id. When the feature
// is not on the stack a detached instance is built for the consumer and
// disposed with it.
func (p *providers) Feature(id decl.NodeID) *container.Container {
	p.r.mu.Lock()
	for _, e := range slices.Backward(p.r.stack) {
		if e.route.Node != id || e.route.Kind != decl.KindFeature {
			continue
		}
		if c, active := e.activeContainer(); active {
			p.r.mu.Unlock()
			return c
		}
	}
	p.r.mu.Unlock()

	re, ok := p.r.table.features[id]
	if !ok {
		return p.fail(id, "no such feature")
	}
	if p.visiting[id] {
		return p.fail(id, "feature dependency cycle")
	}
	visiting := map[decl.NodeID]bool{id: true}
	for k := range p.visiting {
		visiting[k] = true
	}
	sub := &providers{r: p.r, node: id, visiting: visiting}
	c, err := re.Factory(sub)
	if err = firstErr(sub.err, err); err == nil {
		err = c.BindState(nil)
	}
	p.detached = append(p.detached, sub.detached...)
	if err != nil {
		if c != nil {
			if cleanupErr := c.Dispose(); cleanupErr != nil {
				p.r.logger.Warn("dispose after failed detached feature", "feature", id, "consumer", p.node, "err", cleanupErr)
			}
		}
		return p.fail(id, "build detached feature: %v", err)
	}
	c.Activate(p.r.runtime)
	p.detached = append(p.detached, c)
	p.r.logger.Debug("detached feature", "feature", id, "consumer", p.node)
	return c
}

// Subfeature returns the topmost active entry of subfeature id. Subfeatures
// need navigation input, so none is built on demand.
func (p *providers) Subfeature(id decl.NodeID) *container.Container {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	for _, e := range slices.Backward(p.r.stack) {
		if e.route.Node != id || e.route.Kind != decl.KindSubfeature {
			continue
		}
		if c, active := e.activeContainer(); active {
			return c
		}
	}
	return p.fail(id, "subfeature is not active on the stack")
}
