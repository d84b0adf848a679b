// Package leadlist ties filters, pagination and fetched lead data
// together. The Controller is a small state machine driven by explicit
// events; every trigger that can start a fetch flows through one
// reducer, so the interleaving rules (debounce, cancellation,
// last-request-wins) live in one place and are testable without a UI.
package leadlist

import (
	"context"
	"errors"
	"sync"
	"time"

	"leadctl/internal/leadapi"
	"leadctl/internal/query"
	"leadctl/internal/slot"
)

// API is the slice of the lead API the controller drives.
type API interface {
	ListLeads(ctx context.Context, f query.Filters, p query.Page) (*leadapi.ListResult, error)
	DeleteLead(ctx context.Context, id string) error
}

// SessionGate answers the authentication precondition at fetch time.
type SessionGate interface {
	Authenticated() bool
}

// Event is a trigger consumed by Dispatch.
type Event interface{ isEvent() }

// Mounted starts the controller: one immediate fetch of page 1 with the
// current filters. Redundant mounts are ignored.
type Mounted struct{}

// FilterChanged replaces the filter set. The resulting fetch is
// debounced; bursts collapse into one fetch with the final values.
type FilterChanged struct{ Filters query.Filters }

// PageChanged moves to another page and fetches immediately.
type PageChanged struct{ Page int }

// RefreshRequested forces one immediate re-fetch of the current page,
// e.g. after returning from a create/edit flow or a delete.
type RefreshRequested struct{}

// Unmounted tears the controller down: pending timers and in-flight
// requests are cancelled and no state changes afterwards.
type Unmounted struct{}

func (Mounted) isEvent()          {}
func (FilterChanged) isEvent()    {}
func (PageChanged) isEvent()      {}
func (RefreshRequested) isEvent() {}
func (Unmounted) isEvent()        {}

// Snapshot is a consistent copy of the controller's visible state.
type Snapshot struct {
	Rows            []leadapi.Lead
	Filters         query.Filters
	Page            int
	Limit           int
	Total           int
	TotalPages      int
	Loading         bool
	Err             string
	RedirectToLogin bool
}

// DefaultDebounce is the quiet period after the last filter edit before
// a fetch is issued.
const DefaultDebounce = 450 * time.Millisecond

// Options configures a Controller.
type Options struct {
	PageSize int
	Debounce time.Duration
	Filters  query.Filters
	// OnChange is invoked (without internal locks held) whenever the
	// visible state changed.
	OnChange func()
}

// Controller owns the lead-list fetch loop. Safe for concurrent use.
type Controller struct {
	api  API
	gate SessionGate

	mu         sync.Mutex
	mounted    bool
	filters    query.Filters
	page       query.Page
	rows       []leadapi.Lead
	total      int
	totalPages int
	loading    bool
	errMsg     string
	redirect   bool

	fetchSlot   slot.Slot
	debounce    *time.Timer
	debounceGen uint64
	quiet       time.Duration
	onChange    func()
}

// New returns an idle controller; nothing fetches until Mounted.
func New(api API, gate SessionGate, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = query.DefaultLimit
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Controller{
		api:        api,
		gate:       gate,
		filters:    opts.Filters,
		page:       query.Page{Page: 1, Limit: opts.PageSize},
		totalPages: 1,
		quiet:      opts.Debounce,
		onChange:   opts.OnChange,
	}
}

// SetOnChange replaces the change callback. Useful when the observer
// (a UI program) can only be constructed after the controller.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Snapshot returns a copy of the visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := make([]leadapi.Lead, len(c.rows))
	copy(rows, c.rows)
	return Snapshot{
		Rows:            rows,
		Filters:         c.filters,
		Page:            c.page.Page,
		Limit:           c.page.Limit,
		Total:           c.total,
		TotalPages:      c.totalPages,
		Loading:         c.loading,
		Err:             c.errMsg,
		RedirectToLogin: c.redirect,
	}
}

// Dispatch consumes one trigger event. All filter/page mutation and the
// resulting fetch decision happen inside one critical section, so no
// fetch ever reads half-updated intent state.
func (c *Controller) Dispatch(ev Event) {
	c.mu.Lock()
	changed := c.dispatchLocked(ev)
	cb := c.onChange
	c.mu.Unlock()
	if changed && cb != nil {
		cb()
	}
}

func (c *Controller) dispatchLocked(ev Event) bool {
	switch ev := ev.(type) {
	case Mounted:
		if c.mounted {
			return false
		}
		c.mounted = true
		return c.fetchLocked()

	case FilterChanged:
		if !c.mounted {
			return false
		}
		if c.filters.Equal(ev.Filters) {
			// Same values as already applied (including the echo of
			// the initial state right after mount): nothing to do.
			return false
		}
		c.filters = ev.Filters
		c.scheduleDebounceLocked()
		return true

	case PageChanged:
		if !c.mounted {
			return false
		}
		p := min(max(ev.Page, 1), max(c.totalPages, 1))
		if p == c.page.Page {
			return false
		}
		c.page.Page = p
		return c.fetchLocked()

	case RefreshRequested:
		if !c.mounted {
			return false
		}
		return c.fetchLocked()

	case Unmounted:
		if !c.mounted {
			return false
		}
		c.mounted = false
		c.stopDebounceLocked()
		c.fetchSlot.CancelAll()
		return false
	}
	return false
}

// scheduleDebounceLocked replaces any pending quiet-period timer. There
// is never more than one live timer per controller: the generation
// stamp lets a callback that already fired but lost the race for the
// lock recognize it was replaced, since Timer.Stop cannot catch that
// window.
func (c *Controller) scheduleDebounceLocked() {
	c.stopDebounceLocked()
	c.debounceGen++
	gen := c.debounceGen
	c.debounce = time.AfterFunc(c.quiet, func() { c.debounceFire(gen) })
}

func (c *Controller) stopDebounceLocked() {
	c.debounceGen++
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
}

func (c *Controller) debounceFire(gen uint64) {
	c.mu.Lock()
	if gen != c.debounceGen {
		c.mu.Unlock()
		return
	}
	c.debounce = nil
	changed := false
	if c.mounted {
		if c.page.Page != 1 {
			// Off page 1 the edit resolves as a page reset and the
			// reset is what fetches; on page 1 the fetch is direct.
			c.page.Page = 1
			changed = c.fetchLocked()
		} else {
			changed = c.fetchLocked()
		}
	}
	cb := c.onChange
	c.mu.Unlock()
	if changed && cb != nil {
		cb()
	}
}

// fetchLocked issues a list request for the current filters and page.
// The session gate is re-checked here, at fetch time, because session
// and lead-list responses have no cross-channel ordering guarantee.
func (c *Controller) fetchLocked() bool {
	if !c.gate.Authenticated() {
		c.redirect = true
		return true
	}

	c.loading = true
	c.errMsg = ""

	ctx, current := c.fetchSlot.Issue(context.Background())
	f, p := c.filters, c.page
	go func() {
		result, err := c.api.ListLeads(ctx, f, p)
		c.apply(current, result, err)
	}()
	return true
}

// apply settles one fetch. A superseded or cancelled request changes no
// state at all: the rows on screen stay whatever the last applied
// response produced.
func (c *Controller) apply(current func() bool, result *leadapi.ListResult, err error) {
	c.mu.Lock()
	if !c.mounted || !current() || slot.Canceled(err) {
		c.mu.Unlock()
		return
	}

	c.loading = false
	if err != nil {
		c.rows = nil
		c.total = 0
		c.totalPages = 1
		if leadapi.IsUnauthenticated(err) {
			// Drives a redirect, not a visible alert.
			c.redirect = true
			c.errMsg = ""
		} else {
			c.errMsg = leadapi.UserMessage(err, "Failed to fetch leads. Please try again.")
		}
	} else {
		c.rows = result.Data
		c.total = result.Total
		c.totalPages = max(result.TotalPages, 1)
		if c.page.Page > c.totalPages {
			c.page.Page = c.totalPages
		}
		c.errMsg = ""
	}

	cb := c.onChange
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Delete removes a lead server-side, then refreshes the current page
// exactly once. The visible row set is only ever the server's view, so
// there is no optimistic local removal. Failures, including an expired
// session interrupting this user-initiated action, surface as messages.
func (c *Controller) Delete(ctx context.Context, id string) bool {
	if err := c.api.DeleteLead(ctx, id); err != nil {
		if slot.Canceled(err) {
			return false
		}
		var apiErr *leadapi.APIError
		msg := "Network error - unable to reach the server"
		if errors.As(err, &apiErr) {
			msg = leadapi.UserMessage(err, "Failed to delete lead")
		}
		c.mu.Lock()
		c.errMsg = msg
		cb := c.onChange
		c.mu.Unlock()
		if cb != nil {
			cb()
		}
		return false
	}
	c.Dispatch(RefreshRequested{})
	return true
}
