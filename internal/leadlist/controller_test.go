package leadlist

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadctl/internal/leadapi"
	"leadctl/internal/query"
)

// listCall is one in-flight ListLeads invocation the test can settle at
// will, to script response ordering.
type listCall struct {
	filters query.Filters
	page    query.Page
	outcome chan listOutcome
}

type listOutcome struct {
	result *leadapi.ListResult
	err    error
}

func (c *listCall) succeed(rows []leadapi.Lead, total, totalPages int) {
	c.outcome <- listOutcome{result: &leadapi.ListResult{Data: rows, Total: total, TotalPages: totalPages}}
}

func (c *listCall) fail(err error) {
	c.outcome <- listOutcome{err: err}
}

type fakeAPI struct {
	calls chan *listCall

	mu        sync.Mutex
	deleted   []string
	deleteErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(chan *listCall, 16)}
}

func (f *fakeAPI) ListLeads(ctx context.Context, filters query.Filters, p query.Page) (*leadapi.ListResult, error) {
	call := &listCall{filters: filters, page: p, outcome: make(chan listOutcome, 1)}
	f.calls <- call
	select {
	case out := <-call.outcome:
		return out.result, out.err
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}

func (f *fakeAPI) DeleteLead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeAPI) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// nextCall waits for the controller to issue a fetch.
func (f *fakeAPI) nextCall(t *testing.T) *listCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a list fetch")
		return nil
	}
}

// noCall asserts no fetch is issued within the window.
func (f *fakeAPI) noCall(t *testing.T, window time.Duration) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected fetch: page=%d filters=%+v", call.page.Page, call.filters)
	case <-time.After(window):
	}
}

type stubGate struct {
	mu   sync.Mutex
	auth bool
}

func (g *stubGate) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.auth
}

func (g *stubGate) set(v bool) {
	g.mu.Lock()
	g.auth = v
	g.mu.Unlock()
}

const testDebounce = 25 * time.Millisecond

func newTestController(api *fakeAPI, gate SessionGate) *Controller {
	return New(api, gate, Options{PageSize: 20, Debounce: testDebounce})
}

func leads(ids ...string) []leadapi.Lead {
	out := make([]leadapi.Lead, len(ids))
	for i, id := range ids {
		out[i] = leadapi.Lead{ID: id}
	}
	return out
}

func waitRows(t *testing.T, c *Controller, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		if len(snap.Rows) != len(want) {
			return false
		}
		for i, id := range want {
			if snap.Rows[i].ID != id {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond, "rows never became %v", want)
}

func TestMountFetchesOnce(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	call := api.nextCall(t)
	assert.Equal(t, 1, call.page.Page)
	call.succeed(leads("a", "b"), 2, 1)

	waitRows(t, c, "a", "b")
	snap := c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Err)
	assert.Equal(t, 2, snap.Total)

	// A redundant mount must not double-fetch.
	c.Dispatch(Mounted{})
	api.noCall(t, 3*testDebounce)
}

func TestMountEchoOfInitialFiltersSuppressed(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(nil, 0, 1)

	// Re-announcing the filter state the controller already has (the
	// way a render loop echoes initial state) schedules nothing.
	c.Dispatch(FilterChanged{Filters: query.Filters{}})
	api.noCall(t, 3*testDebounce)
}

func TestRapidFilterEditsCollapse(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(nil, 0, 1)

	for _, s := range []string{"a", "ac", "acm", "acme"} {
		c.Dispatch(FilterChanged{Filters: query.Filters{Search: s}})
		time.Sleep(testDebounce / 5)
	}

	call := api.nextCall(t)
	assert.Equal(t, "acme", call.filters.Search, "only the final edit's values fetch")
	call.succeed(leads("x"), 1, 1)
}

func TestEditLandingAsDebounceFiresFetchesOnce(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(nil, 0, 1)

	// Land the second edit right as the first edit's quiet period
	// expires. The first timer may already be firing; it must not run
	// with the second edit's values alongside the replacement timer.
	c.Dispatch(FilterChanged{Filters: query.Filters{Search: "first"}})
	time.Sleep(testDebounce)
	c.Dispatch(FilterChanged{Filters: query.Filters{Search: "final"}})

	finals := 0
	deadline := time.After(5 * testDebounce)
	for done := false; !done; {
		select {
		case call := <-api.calls:
			// A fetch for "first" is fine when its timer won the
			// race; the final values must fetch exactly once.
			if call.filters.Search == "final" {
				finals++
			}
			call.succeed(nil, 0, 1)
		case <-deadline:
			done = true
		}
	}
	assert.Equal(t, 1, finals, "the final edit must produce exactly one fetch")

	api.noCall(t, 3*testDebounce)
}

func TestFilterEditOffPageOneResetsPage(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(leads("a"), 60, 3)
	waitRows(t, c, "a")

	c.Dispatch(PageChanged{Page: 3})
	api.nextCall(t).succeed(leads("z"), 60, 3)
	waitRows(t, c, "z")

	c.Dispatch(FilterChanged{Filters: query.Filters{Status: query.StatusWon}})
	call := api.nextCall(t)
	assert.Equal(t, 1, call.page.Page, "filter edit off page 1 resolves via page reset")
	assert.Equal(t, query.StatusWon, call.filters.Status)
	call.succeed(leads("w"), 1, 1)

	waitRows(t, c, "w")
	assert.Equal(t, 1, c.Snapshot().Page)
}

func TestPageChangeSkipsDebounce(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(leads("a"), 40, 2)
	waitRows(t, c, "a")

	start := time.Now()
	c.Dispatch(PageChanged{Page: 2})
	api.nextCall(t).succeed(leads("b"), 40, 2)
	assert.Less(t, time.Since(start), testDebounce, "page change must fetch immediately")

	// Same-page dispatch is a no-op.
	c.Dispatch(PageChanged{Page: 2})
	api.noCall(t, 3*testDebounce)
}

func TestPageChangeClamped(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(leads("a"), 40, 2)
	waitRows(t, c, "a")

	c.Dispatch(PageChanged{Page: 99})
	call := api.nextCall(t)
	assert.Equal(t, 2, call.page.Page)
	call.succeed(leads("b"), 40, 2)

	c.Dispatch(PageChanged{Page: 0})
	call = api.nextCall(t)
	assert.Equal(t, 1, call.page.Page)
	call.succeed(leads("a"), 40, 2)
}

func TestStaleResponseNeverWins(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	callA := api.nextCall(t)

	// B is issued while A is still pending; A settles afterwards.
	c.Dispatch(RefreshRequested{})
	callB := api.nextCall(t)

	callB.succeed(leads("fresh"), 1, 1)
	waitRows(t, c, "fresh")

	callA.succeed(leads("stale"), 1, 1)
	time.Sleep(3 * testDebounce)
	waitRows(t, c, "fresh")
}

func TestUnauthorizedFetchSetsRedirectNotError(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).fail(&leadapi.APIError{StatusCode: http.StatusUnauthorized, Message: "not authenticated"})

	require.Eventually(t, func() bool {
		return c.Snapshot().RedirectToLogin
	}, 2*time.Second, 5*time.Millisecond)

	snap := c.Snapshot()
	assert.Empty(t, snap.Err, "401 drives a redirect, not a visible error")
	assert.Empty(t, snap.Rows)
}

func TestFetchFailureClearsRows(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(leads("a"), 40, 2)
	waitRows(t, c, "a")

	c.Dispatch(RefreshRequested{})
	api.nextCall(t).fail(&leadapi.APIError{StatusCode: http.StatusInternalServerError, Message: "query planner exploded"})

	require.Eventually(t, func() bool {
		return c.Snapshot().Err != ""
	}, 2*time.Second, 5*time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, "query planner exploded", snap.Err, "server message surfaces verbatim")
	assert.Empty(t, snap.Rows)
	assert.Zero(t, snap.Total)
	assert.Equal(t, 1, snap.TotalPages)
}

func TestSessionGateSkipsFetch(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: false})

	c.Dispatch(Mounted{})
	api.noCall(t, 3*testDebounce)
	assert.True(t, c.Snapshot().RedirectToLogin)
}

func TestUnmountDiscardsInFlightResult(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(leads("a"), 1, 1)
	waitRows(t, c, "a")

	c.Dispatch(RefreshRequested{})
	call := api.nextCall(t)

	c.Dispatch(Unmounted{})
	before := c.Snapshot()
	call.succeed(leads("late"), 1, 1)

	time.Sleep(3 * testDebounce)
	after := c.Snapshot()
	assert.Equal(t, before.Rows, after.Rows, "no state change after teardown")

	// Events after unmount are inert.
	c.Dispatch(RefreshRequested{})
	api.noCall(t, 3*testDebounce)
}

func TestUnmountCancelsPendingDebounce(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(nil, 0, 1)

	c.Dispatch(FilterChanged{Filters: query.Filters{Search: "acme"}})
	c.Dispatch(Unmounted{})

	api.noCall(t, 4*testDebounce)
}

func TestRefreshFetchesExactlyOnce(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(leads("a"), 1, 1)
	waitRows(t, c, "a")

	c.Dispatch(RefreshRequested{})
	api.nextCall(t).succeed(leads("a2"), 1, 1)
	waitRows(t, c, "a2")

	// The signal is an event, consumed on dispatch; nothing re-fires.
	api.noCall(t, 3*testDebounce)
}

func TestDeleteTriggersSingleRefresh(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(leads("a", "b"), 2, 1)
	waitRows(t, c, "a", "b")

	ok := c.Delete(context.Background(), "a")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, api.deletedIDs())

	call := api.nextCall(t)
	assert.Equal(t, 1, call.page.Page, "delete refreshes the current page")
	call.succeed(leads("b"), 1, 1)
	waitRows(t, c, "b")

	api.noCall(t, 3*testDebounce)
}

func TestDeleteFailureSurfacesMessage(t *testing.T) {
	api := newFakeAPI()
	api.deleteErr = &leadapi.APIError{StatusCode: http.StatusForbidden, Message: "lead is locked"}
	c := newTestController(api, &stubGate{auth: true})

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(leads("a"), 1, 1)
	waitRows(t, c, "a")

	ok := c.Delete(context.Background(), "a")
	assert.False(t, ok)
	assert.Equal(t, "lead is locked", c.Snapshot().Err)

	// No refresh on failure.
	api.noCall(t, 3*testDebounce)
}

func TestSessionLossBetweenTriggers(t *testing.T) {
	gate := &stubGate{auth: true}
	api := newFakeAPI()
	c := newTestController(api, gate)

	c.Dispatch(Mounted{})
	api.nextCall(t).succeed(leads("a"), 40, 2)
	waitRows(t, c, "a")

	// The gate is consulted at fetch time, not cached from mount.
	gate.set(false)
	c.Dispatch(PageChanged{Page: 2})
	api.noCall(t, 3*testDebounce)
	assert.True(t, c.Snapshot().RedirectToLogin)
}
