// Package listview drives the paginated catalog view: a small state machine
// over fetch results with last-request-wins resolution ordering.
package listview

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mikaelhatanpaa/eventline/internal/model"
	"github.com/mikaelhatanpaa/eventline/internal/pagination"
)

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseLoaded
	PhaseEmpty
	PhaseFailed
)

// State is one observable snapshot of the view. Page is the most recently
// requested page number, which the snapshot always reflects.
type State struct {
	Phase Phase
	Page  int
	Items []model.Event
	Meta  pagination.Meta
	Err   error
}

// Fetcher is the page data source. *eventclient.Client satisfies it.
type Fetcher interface {
	FetchPage(ctx context.Context, pageSize, pageNumber int) (model.Page, error)
}

// Controller owns the view state. Every Visit bumps a generation counter;
// a fetch resolution carrying a stale generation never updates the state,
// so the displayed page is always the most recently requested one even when
// responses arrive out of order.
type Controller struct {
	fetcher  Fetcher
	pageSize int
	gen      atomic.Int64
	mu       sync.Mutex
	state    State
	subs     []func(State)
}

func NewController(fetcher Fetcher, pageSize int) *Controller {
	if pageSize < 1 {
		pageSize = 1
	}
	return &Controller{
		fetcher:  fetcher,
		pageSize: pageSize,
		state: State{
			Phase: PhaseLoading,
			Page:  1,
			Meta:  pagination.NewMeta(1, pageSize, 0),
		},
	}
}

// Subscribe registers an observer called on every accepted transition.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Visit requests a page and blocks until its fetch resolves or is
// superseded. An invalid page number is treated as page 1. Fetch failures
// never propagate: the view transitions to Failed with a zeroed single-page
// pagination so controls stay renderable.
func (c *Controller) Visit(ctx context.Context, page int) {
	page = pagination.Normalize(page)
	gen := c.gen.Add(1)

	c.transition(gen, State{
		Phase: PhaseLoading,
		Page:  page,
		Meta:  pagination.NewMeta(page, c.pageSize, 0),
	})

	result, err := c.fetcher.FetchPage(ctx, c.pageSize, page)
	if err != nil {
		c.transition(gen, State{
			Phase: PhaseFailed,
			Page:  page,
			Items: nil,
			Meta:  pagination.NewMeta(page, c.pageSize, 0),
			Err:   err,
		})
		return
	}

	phase := PhaseLoaded
	if len(result.Items) == 0 {
		phase = PhaseEmpty
	}
	c.transition(gen, State{
		Phase: phase,
		Page:  page,
		Items: result.Items,
		Meta:  pagination.NewMeta(page, c.pageSize, result.TotalCount),
	})
}

func (c *Controller) transition(gen int64, next State) {
	c.mu.Lock()
	if gen != c.gen.Load() {
		c.mu.Unlock()
		return
	}
	c.state = next
	subs := make([]func(State), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

type ControlKind int

const (
	ControlPrevious ControlKind = iota
	ControlPage
	ControlNext
)

// Control is one pagination affordance in render order.
type Control struct {
	Kind    ControlKind
	Page    int
	Current bool
}

// Controls yields the fixed ordering: previous when applicable, numbered
// pages 1..N ascending with the current page marked, next when applicable.
func Controls(meta pagination.Meta) []Control {
	controls := make([]Control, 0, meta.TotalPages+2)
	if pagination.HasPrevious(meta.CurrentPage) {
		controls = append(controls, Control{Kind: ControlPrevious, Page: meta.CurrentPage - 1})
	}
	for page := 1; page <= meta.TotalPages; page++ {
		controls = append(controls, Control{Kind: ControlPage, Page: page, Current: page == meta.CurrentPage})
	}
	if pagination.HasNext(meta.CurrentPage, meta.TotalPages) {
		controls = append(controls, Control{Kind: ControlNext, Page: meta.CurrentPage + 1})
	}
	return controls
}
