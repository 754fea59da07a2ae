// SPDX-License-Identifier: MPL-2.0

package router

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/skeleton-dev/skeleton/pkg/container"
	"github.com/skeleton-dev/skeleton/pkg/decl"
)

// Router serves a RouteTable. It is safe for concurrent use.
type Router struct {
	table     *RouteTable
	logger    *log.Logger
	metrics   *metrics
	runtime   container.Runtime
	observers []Observer

	singletons map[decl.NodeID]*container.Container
	order      []decl.NodeID

	mu     sync.Mutex
	stack  []*Entry
	closed bool
}

// New creates a Router and materializes every platform and library singleton
// in table order. On failure the singletons created so far are disposed.
func New(ctx context.Context, table *RouteTable, opts ...Option) (*Router, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "router", Level: log.WarnLevel})
	}

	r := &Router{
		table:      table,
		logger:     o.logger,
		metrics:    newMetrics(),
		observers:  o.observers,
		singletons: make(map[decl.NodeID]*container.Container, len(table.singletons)),
		runtime: container.Runtime{
			Dispatch: o.dispatch,
			Logger:   o.logger,
		},
	}
	if o.workers > 0 {
		r.runtime.Pool = semaphore.NewWeighted(o.workers)
	}
	if o.registerer != nil {
		if err := r.metrics.register(o.registerer); err != nil {
			return nil, fmt.Errorf("register router metrics: %w", err)
		}
	}

	for _, s := range table.singletons {
		if err := ctx.Err(); err != nil {
			return nil, errors.Join(err, r.disposeSingletons())
		}
		start := time.Now()
		c, err := r.buildSingleton(s)
		if err != nil {
			r.metrics.materializations.WithLabelValues(string(s.Kind), "error").Inc()
			return nil, errors.Join(fmt.Errorf("materialize singleton %s: %w", s.Node, err), r.disposeSingletons())
		}
		r.singletons[s.Node] = c
		r.order = append(r.order, s.Node)
		r.metrics.materializations.WithLabelValues(string(s.Kind), "ok").Inc()
		r.metrics.duration.WithLabelValues(string(s.Kind)).Observe(time.Since(start).Seconds())
		r.logger.Debug("singleton ready", "node", s.Node, "kind", s.Kind)
	}
	return r, nil
}

func (r *Router) buildSingleton(s SingletonEntry) (*container.Container, error) {
	p := &providers{r: r, node: s.Node}
	c, err := s.Factory(p)
	if err = firstErr(p.err, err); err != nil {
		if c != nil {
			if cleanupErr := c.Dispose(); cleanupErr != nil {
				r.logger.Warn("dispose after failed singleton", "node", s.Node, "err", cleanupErr)
			}
		}
		return nil, err
	}
	if err := c.BindState(nil); err != nil {
		return nil, errors.Join(err, c.Dispose())
	}
	c.Activate(r.runtime)
	return c, nil
}

// Singleton returns a platform or library container.
func (r *Router) Singleton(id decl.NodeID) (*container.Container, bool) {
	c, ok := r.singletons[id]
	return c, ok
}

// Table returns the served route table.
func (r *Router) Table() *RouteTable { return r.table }

// Start navigates to the table's start route.
func (r *Router) Start(ctx context.Context, input any) (*Entry, error) {
	if r.table.start == "" {
		return nil, ErrNoStartRoute
	}
	return r.Navigate(ctx, r.table.start, input)
}

// Navigate moves to route and returns its active subfeature entry. A feature
// route lands on the feature's start subfeature.
//
// If an entry for the target subfeature is already on the stack it is reused
// and every entry above it is popped; its original input is kept. Otherwise
// a subfeature entry is pushed, on top of the current feature entry when the
// target belongs to the feature on top of the stack, or on top of a new
// feature entry. Push forces a new subfeature entry.
//
// Navigate blocks until the entry is active or has failed. An unknown route
// returns *UnknownRouteError and leaves the stack untouched.
func (r *Router) Navigate(ctx context.Context, route decl.Route, input any, opts ...NavigateOption) (*Entry, error) {
	var no navigateOptions
	for _, opt := range opts {
		opt(&no)
	}

	entry, popped, err := r.plan(route, input, no)
	if err != nil {
		return nil, err
	}
	if len(popped) > 0 {
		if err := r.disposeAll(popped); err != nil {
			r.logger.Warn("dispose popped entries", "err", err)
		}
	}
	if err := r.materialize(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// plan updates the stack for a navigation and returns the target entry and
// the entries it popped.
func (r *Router) plan(route decl.Route, input any, no navigateOptions) (*Entry, []*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, nil, ErrClosed
	}
	sub, feature, ok := r.table.target(route)
	if !ok {
		r.metrics.unknownRoutes.Inc()
		r.logger.Warn("unknown route", "route", route)
		return nil, nil, &UnknownRouteError{Route: route}
	}

	if !no.push {
		for i := len(r.stack) - 1; i >= 0; i-- {
			e := r.stack[i]
			if e.route.Kind == decl.KindSubfeature && e.route.Node == sub.Node {
				popped := r.truncate(i + 1)
				return e, popped, nil
			}
		}
	}

	var featureEntry *Entry
	if top := r.top(); top != nil && top.parent != nil && top.parent.route.Node == feature.Node {
		featureEntry = top.parent
	} else {
		featureEntry = newEntry(feature, nil, nil)
		r.stack = append(r.stack, featureEntry)
	}
	entry := newEntry(sub, input, featureEntry)
	r.stack = append(r.stack, entry)
	r.logger.Debug("push", "route", route, "entry", entry.id, "node", sub.Node)
	return entry, nil, nil
}

// Pop removes the entry with the given id and everything above it, then
// disposes them topmost first. A feature entry left without subfeature
// entries is popped too.
func (r *Router) Pop(id uuid.UUID) error {
	r.mu.Lock()
	i := slices.IndexFunc(r.stack, func(e *Entry) bool { return e.id == id })
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	popped := r.truncate(i)
	r.mu.Unlock()
	return r.disposeAll(popped)
}

// Back pops the topmost subfeature entry.
func (r *Router) Back() error {
	r.mu.Lock()
	top := r.top()
	r.mu.Unlock()
	if top == nil {
		return ErrEmptyStack
	}
	return r.Pop(top.id)
}

// Current returns the topmost entry, or nil when the stack is empty.
func (r *Router) Current() *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.top()
}

// Stack returns a snapshot of the stack, bottom first.
func (r *Router) Stack() []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.stack)
}

// Shutdown pops every entry and then disposes singletons in reverse
// materialization order. The router is unusable afterwards.
func (r *Router) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	popped := r.truncate(0)
	r.mu.Unlock()

	errs := []error{r.disposeAll(popped)}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, r.disposeSingletons())
	return errors.Join(errs...)
}

// top returns the topmost entry. Callers hold r.mu.
func (r *Router) top() *Entry {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// truncate cuts the stack to n entries, also dropping a trailing feature
// entry that no longer has subfeatures above it, and returns the removed
// entries topmost first. Callers hold r.mu.
func (r *Router) truncate(n int) []*Entry {
	if n > 0 && r.stack[n-1].route.Kind == decl.KindFeature {
		n--
	}
	removed := slices.Clone(r.stack[n:])
	slices.Reverse(removed)
	clear(r.stack[n:])
	r.stack = r.stack[:n]
	return removed
}

// remove drops e and every entry whose parent is e. Callers hold r.mu.
func (r *Router) remove(e *Entry) {
	r.stack = slices.DeleteFunc(r.stack, func(s *Entry) bool {
		return s == e || s.parent == e
	})
}

func (r *Router) materialize(ctx context.Context, e *Entry) error {
	if e.parent != nil {
		if err := r.materialize(ctx, e.parent); err != nil {
			r.discard(e, err)
			return err
		}
	}

	first := false
	e.once.Do(func() {
		first = true
		e.setState(StateMaterializing)
	})
	if first {
		r.build(ctx, e)
		close(e.ready)
	}

	select {
	case <-e.ready:
		return e.Err()
	default:
	}
	select {
	case <-e.ready:
		return e.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// discard marks e failed without building it, when its feature entry failed.
func (r *Router) discard(e *Entry, err error) {
	claimed := false
	e.once.Do(func() { claimed = true })
	if !claimed {
		return
	}
	e.mu.Lock()
	e.state = StateDisposed
	e.err = err
	e.mu.Unlock()
	close(e.ready)

	r.mu.Lock()
	r.remove(e)
	r.mu.Unlock()
}

func (r *Router) build(ctx context.Context, e *Entry) {
	start := time.Now()
	kind := string(e.route.Kind)

	c, detached, err := r.construct(ctx, e)
	if err != nil {
		err = &MaterializeError{Entry: e.id, Node: e.route.Node, Err: err}
		e.mu.Lock()
		e.state = StateDisposed
		e.err = err
		e.mu.Unlock()
		r.dropFailed(e)

		r.metrics.materializations.WithLabelValues(kind, "error").Inc()
		r.logger.Error("materialize failed", "route", e.route.Route, "entry", e.id, "err", err)
		r.notify(Event{Type: EventFailed, Entry: e, Err: err})
		return
	}

	var ui any
	if e.route.UI != nil {
		ui = e.route.UI(c.State())
	}
	e.mu.Lock()
	e.container = c
	e.detached = detached
	e.ui = ui
	e.state = StateActive
	e.mu.Unlock()
	c.Activate(r.runtime)

	r.metrics.materializations.WithLabelValues(kind, "ok").Inc()
	r.metrics.duration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	r.metrics.activeEntries.Inc()
	r.logger.Debug("active", "route", e.route.Route, "entry", e.id, "node", e.route.Node)
	r.notify(Event{Type: EventActive, Entry: e})
}

// construct runs the entry's factory and binds its state. On failure every
// container it created is disposed.
func (r *Router) construct(ctx context.Context, e *Entry) (*container.Container, []*container.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	p := &providers{r: r, node: e.route.Node, entry: e}
	c, err := e.route.Factory(p)
	if err = firstErr(p.err, err); err == nil {
		err = c.BindState(e.input)
	}
	if err != nil {
		var errs []error
		if c != nil {
			errs = append(errs, c.Dispose())
		}
		errs = append(errs, disposeContainers(p.detached))
		if cleanupErr := errors.Join(errs...); cleanupErr != nil {
			r.logger.Warn("dispose after failed materialization", "node", e.route.Node, "err", cleanupErr)
		}
		return nil, nil, err
	}
	return c, p.detached, nil
}

// dropFailed removes a failed entry and its dependents from the stack. A
// feature entry left without subfeature entries is popped and disposed.
func (r *Router) dropFailed(e *Entry) {
	r.mu.Lock()
	r.remove(e)
	var orphan *Entry
	if p := e.parent; p != nil && slices.Contains(r.stack, p) &&
		!slices.ContainsFunc(r.stack, func(s *Entry) bool { return s.parent == p }) {
		r.remove(p)
		orphan = p
	}
	r.mu.Unlock()
	if orphan == nil {
		return
	}
	if err := r.disposeEntry(orphan); err != nil {
		r.logger.Warn("dispose orphaned feature entry", "entry", orphan.id, "err", err)
	}
}

func (r *Router) disposeAll(entries []*Entry) error {
	var errs []error
	for _, e := range entries {
		if err := r.disposeEntry(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Router) disposeEntry(e *Entry) error {
	claimed := false
	e.once.Do(func() { claimed = true })
	if claimed {
		e.mu.Lock()
		e.state = StateDisposed
		e.err = ErrEntryPopped
		e.mu.Unlock()
		close(e.ready)
		return nil
	}

	<-e.ready
	c, active := e.activeContainer()
	if !active {
		return nil
	}

	var errs []error
	if err := c.Dispose(); err != nil {
		errs = append(errs, err)
	}
	e.mu.Lock()
	detached := e.detached
	e.detached = nil
	e.state = StateDisposed
	e.mu.Unlock()
	if err := disposeContainers(detached); err != nil {
		errs = append(errs, err)
	}

	r.metrics.disposals.WithLabelValues(string(e.route.Kind)).Inc()
	r.metrics.activeEntries.Dec()
	r.logger.Debug("disposed", "route", e.route.Route, "entry", e.id)
	r.notify(Event{Type: EventDisposed, Entry: e})
	return errors.Join(errs...)
}

func (r *Router) disposeSingletons() error {
	var errs []error
	for _, id := range slices.Backward(r.order) {
		c := r.singletons[id]
		if err := c.Dispose(); err != nil {
			errs = append(errs, fmt.Errorf("dispose singleton %s: %w", id, err))
		}
		r.metrics.disposals.WithLabelValues(string(c.Kind())).Inc()
	}
	r.order = nil
	return errors.Join(errs...)
}

func (r *Router) notify(ev Event) {
	for _, fn := range r.observers {
		fn(ev)
	}
}

func disposeContainers(cs []*container.Container) error {
	var errs []error
	for _, c := range slices.Backward(cs) {
		if err := c.Dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
