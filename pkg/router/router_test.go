// SPDX-License-Identifier: MPL-2.0

package router

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skeleton-dev/skeleton/pkg/container"
	"github.com/skeleton-dev/skeleton/pkg/decl"
)

type (
	clock struct{ name string }

	testLogger struct {
		clock *clock
		mu    sync.Mutex
		lines []string
	}

	screenState struct {
		input  any
		logger *testLogger
	}

	fixture struct {
		b       *container.Bindings
		table   *RouteTable
		calls   sync.Map // decl.NodeID -> *atomic.Int32
		mu      sync.Mutex
		events  []string
		failing atomic.Bool
	}
)

func (l *testLogger) Log(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (f *fixture) count(id decl.NodeID) int32 {
	v, _ := f.calls.LoadOrStore(id, new(atomic.Int32))
	return v.(*atomic.Int32).Load()
}

func (f *fixture) counted(id decl.NodeID, fn Factory) Factory {
	return func(p Providers) (*container.Container, error) {
		v, _ := f.calls.LoadOrStore(id, new(atomic.Int32))
		v.(*atomic.Int32).Add(1)
		return fn(p)
	}
}

func (f *fixture) observe(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, string(ev.Type)+":"+string(ev.Entry.Node()))
}

func (f *fixture) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func screen(c *container.Container, input any) (any, error) {
	logger, err := container.Get[*testLogger](c, "Logger")
	if err != nil {
		return nil, err
	}
	logger.Log("open " + string(c.ID()))
	return &screenState{input: input, logger: logger}, nil
}

// newFixture builds the table generated code would produce for:
//
//	P (platform) provides Clock
//	L (library) provides Logger, requires Clock
//	F (feature, route f, start F.s) with subfeatures F.s (f/s) and F.t (f/t),
//	  both requiring Logger
//	G (feature, route g, start G.x) provides Favorites; subfeature G.x (g/x)
//	F.d (subfeature of F, route f/d) requires Favorites from G
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{b: container.NewBindings()}
	b := f.b

	b.MustBind("P", container.Binding{Provides: map[decl.Capability]container.ProvideFunc{
		"Clock": container.Value(&clock{name: "wall"}),
	}})
	b.MustBind("L", container.Binding{Provides: map[decl.Capability]container.ProvideFunc{
		"Logger": container.Provide(func(c *container.Container) (*testLogger, error) {
			clk, err := container.Get[*clock](c, "Clock")
			if err != nil {
				return nil, err
			}
			return &testLogger{clock: clk}, nil
		}),
	}})
	b.MustBind("F.s", container.Binding{
		State: func(c *container.Container, input any) (any, error) {
			if f.failing.Load() {
				return nil, errors.New("state exploded")
			}
			return screen(c, input)
		},
		UI: func(state any) any { return "ui:F.s" },
	})
	b.MustBind("F.t", container.Binding{State: screen})
	b.MustBind("G", container.Binding{Provides: map[decl.Capability]container.ProvideFunc{
		"Favorites": container.Value(&[]string{"tt0133093"}),
	}})
	b.MustBind("F.d", container.Binding{State: func(c *container.Container, input any) (any, error) {
		return container.Get[*[]string](c, "Favorites")
	}})

	sub := func(id decl.NodeID, slots func(p Providers) []container.Slot) Factory {
		return f.counted(id, func(p Providers) (*container.Container, error) {
			return container.New(b, container.Spec{ID: id, Kind: decl.KindSubfeature, Parent: p.Parent(), Slots: slots(p)})
		})
	}
	logger := func(p Providers) []container.Slot {
		return []container.Slot{{Capability: "Logger", Provider: p.Singleton("L")}}
	}

	table, err := NewRouteTable(TableSpec{
		Start: "f",
		Singletons: []SingletonEntry{
			{Node: "P", Kind: decl.KindPlatform, Factory: f.counted("P", func(Providers) (*container.Container, error) {
				return container.New(b, container.Spec{ID: "P", Kind: decl.KindPlatform, Provides: []decl.Capability{"Clock"}})
			})},
			{Node: "L", Kind: decl.KindLibrary, Factory: f.counted("L", func(p Providers) (*container.Container, error) {
				return container.New(b, container.Spec{
					ID: "L", Kind: decl.KindLibrary, Provides: []decl.Capability{"Logger"},
					Slots: []container.Slot{{Capability: "Clock", Provider: p.Singleton("P")}},
				})
			})},
		},
		Routes: []RouteEntry{
			{Route: "f", Node: "F", Kind: decl.KindFeature, Start: "F.s", Factory: f.counted("F", func(Providers) (*container.Container, error) {
				return container.New(b, container.Spec{ID: "F", Kind: decl.KindFeature})
			})},
			{Route: "f/d", Node: "F.d", Kind: decl.KindSubfeature, Parent: "F", Factory: sub("F.d", func(p Providers) []container.Slot {
				return []container.Slot{{Capability: "Favorites", Provider: p.Feature("G")}}
			})},
			{Route: "f/s", Node: "F.s", Kind: decl.KindSubfeature, Parent: "F", Factory: sub("F.s", logger), UI: b.UIEntry("F.s")},
			{Route: "f/t", Node: "F.t", Kind: decl.KindSubfeature, Parent: "F", Factory: sub("F.t", logger)},
			{Route: "g", Node: "G", Kind: decl.KindFeature, Start: "G.x", Factory: f.counted("G", func(Providers) (*container.Container, error) {
				return container.New(b, container.Spec{ID: "G", Kind: decl.KindFeature, Provides: []decl.Capability{"Favorites"}})
			})},
			{Route: "g/x", Node: "G.x", Kind: decl.KindSubfeature, Parent: "G", Factory: sub("G.x", func(Providers) []container.Slot { return nil })},
		},
	})
	require.NoError(t, err)
	f.table = table
	return f
}

func (f *fixture) router(t *testing.T, opts ...Option) *Router {
	t.Helper()
	opts = append([]Option{
		WithObserver(f.observe),
		WithLogger(log.New(io.Discard)),
	}, opts...)
	r, err := New(context.Background(), f.table, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Shutdown(context.Background()) })
	return r
}

func nodes(entries []*Entry) []decl.NodeID {
	out := make([]decl.NodeID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Node())
	}
	return out
}

func TestNavigateFeatureRouteMaterializesFeatureFirst(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r := f.router(t)

	assert.Equal(t, []decl.Route{"f", "f/d", "f/s", "f/t", "g", "g/x"}, r.Table().Routes())

	e, err := r.Navigate(context.Background(), "f", "query")
	require.NoError(t, err)
	assert.Equal(t, decl.NodeID("F.s"), e.Node())
	assert.Equal(t, StateActive, e.State())
	assert.Equal(t, StateActive, e.Parent().State())
	assert.Equal(t, []string{"active:F", "active:F.s"}, f.recorded())
	assert.Equal(t, "ui:F.s", e.UI())

	state := e.Container().State().(*screenState)
	assert.Equal(t, "query", state.input)
	assert.Equal(t, "wall", state.logger.clock.name)

	l, ok := r.Singleton("L")
	require.True(t, ok)
	provided, _ := l.Provided("Logger")
	assert.Same(t, provided, state.logger, "Logger is provided through L")
	assert.Same(t, e.Parent().Container(), e.Container().Parent())
}

func TestNavigateReuseAndFreshAfterPop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r := f.router(t)
	ctx := context.Background()

	first, err := r.Navigate(ctx, "f/s", nil)
	require.NoError(t, err)
	again, err := r.Navigate(ctx, "f/s", nil)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Same(t, first.Container(), again.Container())
	assert.Equal(t, int32(1), f.count("F.s"))

	firstContainer := first.Container()
	require.NoError(t, r.Pop(first.ID()))
	assert.Equal(t, StateDisposed, first.State())
	assert.True(t, firstContainer.Disposed())
	assert.Empty(t, r.Stack(), "feature entry without subfeatures is popped")

	fresh, err := r.Navigate(ctx, "f/s", nil)
	require.NoError(t, err)
	assert.NotSame(t, firstContainer, fresh.Container())
	assert.NotEqual(t, first.ID(), fresh.ID())
	assert.Equal(t, int32(2), f.count("F.s"))
	assert.Equal(t, int32(2), f.count("F"))
}

func TestNavigateConcurrentMaterializesOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r := f.router(t)

	const callers = 32
	entries := make([]*Entry, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := r.Navigate(context.Background(), "f/s", nil)
			assert.NoError(t, err)
			entries[i] = e
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.count("F"))
	assert.Equal(t, int32(1), f.count("F.s"))
	for _, e := range entries {
		assert.Same(t, entries[0], e)
	}
	assert.Equal(t, []decl.NodeID{"F", "F.s"}, nodes(r.Stack()))
}

func TestStackSharesFeatureEntry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r := f.router(t)
	ctx := context.Background()

	s, err := r.Navigate(ctx, "f/s", nil)
	require.NoError(t, err)
	tt, err := r.Navigate(ctx, "f/t", nil)
	require.NoError(t, err)
	assert.Same(t, s.Parent(), tt.Parent())
	assert.Equal(t, []decl.NodeID{"F", "F.s", "F.t"}, nodes(r.Stack()))

	_, err = r.Navigate(ctx, "g", nil)
	require.NoError(t, err)
	assert.Equal(t, []decl.NodeID{"F", "F.s", "F.t", "G", "G.x"}, nodes(r.Stack()))

	back, err := r.Navigate(ctx, "f/s", nil)
	require.NoError(t, err)
	assert.Same(t, s, back)
	assert.Equal(t, []decl.NodeID{"F", "F.s"}, nodes(r.Stack()))
	assert.Equal(t, StateDisposed, tt.State())

	require.NoError(t, r.Back())
	assert.Empty(t, r.Stack())
	assert.ErrorIs(t, r.Back(), ErrEmptyStack)
	assert.Nil(t, r.Current())
}

func TestNavigatePushForcesNewEntry(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r := f.router(t)
	ctx := context.Background()

	a, err := r.Navigate(ctx, "f/s", "a")
	require.NoError(t, err)
	b, err := r.Navigate(ctx, "f/s", "b", Push())
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Same(t, a.Parent(), b.Parent())
	assert.Equal(t, "b", b.Container().State().(*screenState).input)
	assert.Equal(t, []decl.NodeID{"F", "F.s", "F.s"}, nodes(r.Stack()))
	assert.Same(t, b, r.Current())
}

func TestUnknownRouteIsRecoverable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	r := f.router(t, WithRegisterer(reg))
	ctx := context.Background()

	_, err := r.Navigate(ctx, "f/s", nil)
	require.NoError(t, err)
	before := r.Stack()

	_, err = r.Navigate(ctx, "nowhere", nil)
	var unknown *UnknownRouteError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, decl.Route("nowhere"), unknown.Route)
	assert.ErrorIs(t, err, ErrUnknownRoute)
	assert.Equal(t, before, r.Stack())

	_, err = r.Navigate(ctx, "f/t", nil)
	require.NoError(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(r.metrics.unknownRoutes), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(r.metrics.activeEntries), 0)
}

func TestPopCancelsTasksBeforeDisposal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}
	started := make(chan struct{})
	f.b.MustBind("G.x", container.Binding{State: func(c *container.Container, _ any) (any, error) {
		c.Scope().Launch("poll", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			record("task returned")
			return ctx.Err()
		}, nil)
		c.Scope().OnCleanup(func() error { record("cleanup"); return nil })
		c.OnDispose(func(*container.Container) { record("container disposed") })
		return nil, nil
	}})

	r := f.router(t, WithWorkers(4), WithObserver(func(ev Event) {
		if ev.Type == EventDisposed && ev.Entry.Node() == "G.x" {
			record("observer")
		}
	}))
	e, err := r.Navigate(context.Background(), "g/x", nil)
	require.NoError(t, err)
	<-started

	require.NoError(t, r.Pop(e.ID()))
	assert.Equal(t, []string{"task returned", "cleanup", "container disposed", "observer"}, order)
	assert.ErrorIs(t, r.Pop(e.ID()), ErrEntryNotFound)
}

func TestMaterializationFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r := f.router(t)
	ctx := context.Background()

	f.failing.Store(true)
	_, err := r.Navigate(ctx, "f", nil)
	var me *MaterializeError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, decl.NodeID("F.s"), me.Node)
	assert.Empty(t, r.Stack(), "failed entry and its orphaned feature entry are removed")
	assert.Contains(t, f.recorded(), "failed:F.s")
	assert.Contains(t, f.recorded(), "disposed:F")

	f.failing.Store(false)
	e, err := r.Navigate(ctx, "f", nil)
	require.NoError(t, err)
	assert.Equal(t, StateActive, e.State())
}

func TestDetachedFeatureDependency(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r := f.router(t)
	ctx := context.Background()

	e, err := r.Navigate(ctx, "f/d", nil)
	require.NoError(t, err)
	assert.Equal(t, &[]string{"tt0133093"}, e.Container().State())
	assert.Equal(t, []decl.NodeID{"F", "F.d"}, nodes(r.Stack()), "detached feature is not on the stack")
	assert.Equal(t, int32(1), f.count("G"))

	require.NoError(t, r.Pop(e.ID()))

	// With G on the stack its live entry is used instead.
	g, err := r.Navigate(ctx, "g", nil)
	require.NoError(t, err)
	d, err := r.Navigate(ctx, "f/d", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.count("G"))
	provided, _ := g.Parent().Container().Provided("Favorites")
	assert.Same(t, provided, d.Container().State())
}

func TestShutdownDisposesSingletonsInReverse(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	r, err := New(context.Background(), f.table, WithLogger(log.New(io.Discard)))
	require.NoError(t, err)

	p, _ := r.Singleton("P")
	l, _ := r.Singleton("L")
	var order []decl.NodeID
	p.OnDispose(func(c *container.Container) { order = append(order, c.ID()) })
	l.OnDispose(func(c *container.Container) { order = append(order, c.ID()) })

	e, err := r.Start(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, r.Shutdown(context.Background()))

	assert.Equal(t, []decl.NodeID{"L", "P"}, order)
	assert.Equal(t, StateDisposed, e.State())
	_, err = r.Navigate(context.Background(), "f", nil)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, r.Shutdown(context.Background()))
}

func TestNewFailsOnMissingSingletonBinding(t *testing.T) {
	t.Parallel()
	b := container.NewBindings()
	table, err := NewRouteTable(TableSpec{Singletons: []SingletonEntry{
		{Node: "P", Kind: decl.KindPlatform, Factory: func(Providers) (*container.Container, error) {
			return container.New(b, container.Spec{ID: "P", Kind: decl.KindPlatform, Provides: []decl.Capability{"Clock"}})
		}},
	}})
	require.NoError(t, err)

	_, err = New(context.Background(), table, WithLogger(log.New(io.Discard)))
	assert.ErrorIs(t, err, container.ErrUnbound)

	r, err := New(context.Background(), &RouteTable{}, WithLogger(log.New(io.Discard)))
	require.NoError(t, err)
	_, err = r.Start(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoStartRoute)
}

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("close failed") }

func TestFailedSingletonCleanupIsLogged(t *testing.T) {
	t.Parallel()
	b := container.NewBindings()
	b.MustBind("P", container.Binding{Provides: map[decl.Capability]container.ProvideFunc{
		"Conn": container.Value(failingCloser{}),
	}})
	table, err := NewRouteTable(TableSpec{Singletons: []SingletonEntry{
		{Node: "P", Kind: decl.KindPlatform, Factory: func(Providers) (*container.Container, error) {
			c, err := container.New(b, container.Spec{ID: "P", Kind: decl.KindPlatform, Provides: []decl.Capability{"Conn"}})
			require.NoError(t, err)
			return c, errors.New("factory failed late")
		}},
	}})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = New(context.Background(), table, WithLogger(log.New(&buf)))
	require.ErrorContains(t, err, "factory failed late")
	assert.Contains(t, buf.String(), "dispose after failed singleton")
	assert.Contains(t, buf.String(), "close failed")
}

func TestFailedDetachedFeatureCleanupIsLogged(t *testing.T) {
	t.Parallel()
	b := container.NewBindings()
	b.MustBind("G", container.Binding{Provides: map[decl.Capability]container.ProvideFunc{
		"Conn": container.Value(failingCloser{}),
	}})

	table, err := NewRouteTable(TableSpec{
		Start: "f",
		Routes: []RouteEntry{
			{Route: "f", Node: "F", Kind: decl.KindFeature, Start: "F.d", Factory: func(Providers) (*container.Container, error) {
				return container.New(b, container.Spec{ID: "F", Kind: decl.KindFeature})
			}},
			{Route: "f/d", Node: "F.d", Kind: decl.KindSubfeature, Parent: "F", Factory: func(p Providers) (*container.Container, error) {
				g := p.Feature("G")
				if g == nil {
					return nil, errors.New("feature G unavailable")
				}
				return container.New(b, container.Spec{
					ID: "F.d", Kind: decl.KindSubfeature, Parent: p.Parent(),
					Slots: []container.Slot{{Capability: "Conn", Provider: g}},
				})
			}},
			{Route: "g", Node: "G", Kind: decl.KindFeature, Start: "G.s", Factory: func(Providers) (*container.Container, error) {
				c, err := container.New(b, container.Spec{ID: "G", Kind: decl.KindFeature, Provides: []decl.Capability{"Conn"}})
				require.NoError(t, err)
				return c, errors.New("factory failed late")
			}},
			{Route: "g/s", Node: "G.s", Kind: decl.KindSubfeature, Parent: "G", Factory: func(p Providers) (*container.Container, error) {
				return container.New(b, container.Spec{ID: "G.s", Kind: decl.KindSubfeature, Parent: p.Parent()})
			}},
		},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	r, err := New(context.Background(), table, WithLogger(log.New(&buf)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Shutdown(context.Background()) })

	_, err = r.Navigate(context.Background(), "f/d", nil)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "dispose after failed detached feature")
	assert.Contains(t, buf.String(), "close failed")
}

func TestNewRouteTableValidation(t *testing.T) {
	t.Parallel()

	noop := func(Providers) (*container.Container, error) { return nil, nil }
	tests := []struct {
		name string
		spec TableSpec
	}{
		{
			name: "duplicate route",
			spec: TableSpec{Routes: []RouteEntry{
				{Route: "a", Node: "A", Kind: decl.KindFeature, Start: "A.s", Factory: noop},
				{Route: "a", Node: "A.s", Kind: decl.KindSubfeature, Parent: "A", Factory: noop},
			}},
		},
		{
			name: "start not a child",
			spec: TableSpec{Routes: []RouteEntry{
				{Route: "a", Node: "A", Kind: decl.KindFeature, Start: "B.s", Factory: noop},
			}},
		},
		{
			name: "orphan subfeature",
			spec: TableSpec{Routes: []RouteEntry{
				{Route: "a/s", Node: "A.s", Kind: decl.KindSubfeature, Parent: "A", Factory: noop},
			}},
		},
		{
			name: "routable singleton",
			spec: TableSpec{Singletons: []SingletonEntry{{Node: "F", Kind: decl.KindFeature, Factory: noop}}},
		},
		{
			name: "start route is not a feature",
			spec: TableSpec{Start: "missing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRouteTable(tt.spec)
			assert.ErrorIs(t, err, ErrInvalidTable)
		})
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "unresolved", StateUnresolved.String())
	assert.Equal(t, "materializing", StateMaterializing.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "disposed", StateDisposed.String())
}

// TestFeatureConsumingLibrary mirrors the generated table for:
//
//	P (platform) provides Clock
//	L (library) provides Logger, requires Clock
//	F (feature, route f, start F.s) requires Logger
//	F.s (subfeature of F, route f/s) requires nothing
func TestFeatureConsumingLibrary(t *testing.T) {
	t.Parallel()

	b := container.NewBindings()
	b.MustBind("P", container.Binding{Provides: map[decl.Capability]container.ProvideFunc{
		"Clock": container.Value(&clock{name: "wall"}),
	}})
	b.MustBind("L", container.Binding{Provides: map[decl.Capability]container.ProvideFunc{
		"Logger": container.Provide(func(c *container.Container) (*testLogger, error) {
			clk, err := container.Get[*clock](c, "Clock")
			if err != nil {
				return nil, err
			}
			return &testLogger{clock: clk}, nil
		}),
	}})
	b.MustBind("F", container.Binding{State: func(c *container.Container, _ any) (any, error) {
		return container.Get[*testLogger](c, "Logger")
	}})

	var (
		mu    sync.Mutex
		calls []decl.NodeID
	)
	record := func(id decl.NodeID) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, id)
	}

	newP := func() (*container.Container, error) {
		return container.New(b, container.Spec{ID: "P", Kind: decl.KindPlatform, Provides: []decl.Capability{"Clock"}})
	}
	newL := func(clk *container.Container) (*container.Container, error) {
		return container.New(b, container.Spec{
			ID: "L", Kind: decl.KindLibrary, Provides: []decl.Capability{"Logger"},
			Slots: []container.Slot{{Capability: "Clock", Provider: clk}},
		})
	}
	newF := func(logger *container.Container) (*container.Container, error) {
		record("F")
		return container.New(b, container.Spec{
			ID: "F", Kind: decl.KindFeature,
			Slots: []container.Slot{{Capability: "Logger", Provider: logger}},
		})
	}
	newFS := func(parent *container.Container) (*container.Container, error) {
		record("F.s")
		return container.New(b, container.Spec{ID: "F.s", Kind: decl.KindSubfeature, Parent: parent})
	}

	table, err := NewRouteTable(TableSpec{
		Start: "f",
		Singletons: []SingletonEntry{
			{Node: "P", Kind: decl.KindPlatform, Factory: func(Providers) (*container.Container, error) { return newP() }},
			{Node: "L", Kind: decl.KindLibrary, Factory: func(p Providers) (*container.Container, error) { return newL(p.Singleton("P")) }},
		},
		Routes: []RouteEntry{
			{Route: "f", Node: "F", Kind: decl.KindFeature, Start: "F.s", Factory: func(p Providers) (*container.Container, error) {
				return newF(p.Singleton("L"))
			}},
			{Route: "f/s", Node: "F.s", Kind: decl.KindSubfeature, Parent: "F", Factory: func(p Providers) (*container.Container, error) {
				return newFS(p.Parent())
			}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []decl.Route{"f", "f/s"}, table.Routes())

	var (
		evMu   sync.Mutex
		events []string
	)
	r, err := New(context.Background(), table,
		WithLogger(log.New(io.Discard)),
		WithObserver(func(ev Event) {
			evMu.Lock()
			defer evMu.Unlock()
			events = append(events, string(ev.Type)+":"+string(ev.Entry.Node()))
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Shutdown(context.Background()) })

	e, err := r.Start(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, decl.NodeID("F.s"), e.Node())

	mu.Lock()
	assert.Equal(t, []decl.NodeID{"F", "F.s"}, calls)
	mu.Unlock()
	evMu.Lock()
	assert.Equal(t, []string{"active:F", "active:F.s"}, events)
	evMu.Unlock()

	l, ok := r.Singleton("L")
	require.True(t, ok)
	want, ok := l.Provided("Logger")
	require.True(t, ok)

	feature := e.Parent()
	require.NotNil(t, feature)
	got, err := container.Get[*testLogger](feature.Container(), "Logger")
	require.NoError(t, err)
	assert.Same(t, want, got, "F's Logger slot is wired to L")
	assert.Same(t, want, feature.Container().State(), "F's state was built from L's Logger")
	assert.Equal(t, "wall", got.clock.name)
}
