// Package detail owns the nested detail nest: one fetch per distinct event
// id, fanned out read-only to whichever child view is active.
package detail

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mikaelhatanpaa/eventline/internal/model"
	"github.com/mikaelhatanpaa/eventline/internal/nav"
)

// Loader fetches one full event record. *eventclient.Client satisfies it.
type Loader interface {
	GetEvent(ctx context.Context, eventID string) (model.Event, error)
}

// Result is the outcome of showing a detail route. Exactly one of Event,
// Redirect, or Stale is meaningful: a loaded event for the active child, a
// terminal destination on failure, or a discarded stale resolution.
type Result struct {
	Event    *model.Event
	Child    nav.ChildView
	Redirect *nav.Route
	Stale    bool
}

// Container caches the loaded event per id. Child-only route changes reuse
// the cached record; an id change refetches under a new generation so a slow
// stale load never overwrites a newer one.
type Container struct {
	loader Loader
	gen    atomic.Int64
	mu     sync.Mutex
	id     string
	item   *model.Event
}

func NewContainer(loader Loader) *Container {
	return &Container{loader: loader}
}

// Show resolves a detail route. The returned event is shared read-only with
// the active child; callers must not mutate it.
func (c *Container) Show(ctx context.Context, route nav.Route) Result {
	if route.Kind != nav.KindEventDetail {
		return Result{}
	}

	c.mu.Lock()
	if c.id == route.EventID && c.item != nil {
		item := c.item
		c.mu.Unlock()
		return Result{Event: item, Child: route.Child}
	}
	gen := c.gen.Add(1)
	c.id = route.EventID
	c.item = nil
	c.mu.Unlock()

	ev, err := c.loader.GetEvent(ctx, route.EventID)

	c.mu.Lock()
	stale := gen != c.gen.Load()
	if !stale && err == nil {
		c.item = &ev
	}
	c.mu.Unlock()

	if stale {
		return Result{Stale: true}
	}
	if err != nil {
		redirect := nav.FailureRoute(err, model.ResourceEvent)
		return Result{Redirect: &redirect, Child: route.Child}
	}
	return Result{Event: &ev, Child: route.Child}
}

// Put installs a freshly saved record as the cached one, so a return to the
// detail child shows the new data instead of the pre-save load. Bumping the
// generation discards any fetch still in flight for the old record.
func (c *Container) Put(ev model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen.Add(1)
	c.id = ev.EventID
	c.item = &ev
}

// Event returns the currently cached record, if any.
func (c *Container) Event() *model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.item
}
