package leadapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"leadctl/internal/query"
	"leadctl/internal/slot"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Cookie string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie := ""
		if c, err := r.Cookie("leadapi_session"); err == nil {
			cookie = c.Value
		}
		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Cookie: cookie,
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			if r.URL.Path == "/api/auth/login" {
				http.SetCookie(w, &http.Cookie{Name: "leadapi_session", Value: "sess-1", Path: "/"})
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client(t *testing.T) *Client {
	t.Helper()
	c, err := New(ts.server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

var ctx = context.Background()

func TestLoginCapturesSessionCookie(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/auth/login": `{"success":true,"user":{"_id":"u1","username":"jo","email":"jo@example.com"}}`,
		"GET /api/auth/me":     `{"success":true,"user":{"_id":"u1","username":"jo","email":"jo@example.com"}}`,
	})
	c := ts.client(t)

	user, err := c.Login(ctx, "jo@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Username != "jo" {
		t.Errorf("username = %q, want jo", user.Username)
	}

	if _, err := c.Me(ctx); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if got := ts.requests[1].Cookie; got != "sess-1" {
		t.Errorf("session cookie on follow-up request = %q, want sess-1", got)
	}
}

func TestLoginFailureCarriesServerMessage(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/auth/login": `{"success":false,"message":"Invalid email or password"}`,
	})
	c := ts.client(t)

	_, err := c.Login(ctx, "jo@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *APIError", err)
	}
	if apiErr.Message != "Invalid email or password" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestMeUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"not authenticated"}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = c.Me(ctx)
	if !IsUnauthenticated(err) {
		t.Errorf("IsUnauthenticated(%v) = false, want true", err)
	}
}

func TestListLeadsEncodesFilters(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /leads": `{"data":[{"_id":"l1","first_name":"Ada"}],"total":1,"totalPages":1}`,
	})
	c := ts.client(t)

	f := query.Filters{Status: query.StatusQualified, Score: query.Range{GreaterThan: query.Float(10), LessThan: query.Float(50)}}
	result, err := c.ListLeads(ctx, f, query.Page{Page: 2, Limit: 20})
	if err != nil {
		t.Fatalf("ListLeads: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].ID != "l1" {
		t.Errorf("unexpected result %+v", result)
	}

	q := ts.requests[0].Query
	if q.Get("status") != "qualified" {
		t.Errorf("status = %q, want qualified", q.Get("status"))
	}
	if q.Get("page") != "2" {
		t.Errorf("page = %q, want 2", q.Get("page"))
	}
	if q.Get("score") != `{"gt":10,"lt":50}` {
		t.Errorf("score = %q", q.Get("score"))
	}
	if q.Has("search") || q.Has("source") {
		t.Errorf("unset filters leaked into query: %v", q)
	}
}

func TestListLeadsTotalPagesFloor(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /leads": `{"data":[],"total":0,"totalPages":0}`,
	})
	c := ts.client(t)

	result, err := c.ListLeads(ctx, query.Filters{}, query.Page{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("ListLeads: %v", err)
	}
	if result.TotalPages != 1 {
		t.Errorf("totalPages = %d, want 1", result.TotalPages)
	}
}

func TestDeleteLead(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"DELETE /leads/l42": `{"success":true}`,
	})
	c := ts.client(t)

	if err := c.DeleteLead(ctx, "l42"); err != nil {
		t.Fatalf("DeleteLead: %v", err)
	}
	r := ts.requests[0]
	if r.Method != "DELETE" || r.Path != "/leads/l42" {
		t.Errorf("request = %s %s, want DELETE /leads/l42", r.Method, r.Path)
	}
}

func TestSupersededRequestKeepsCause(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	t.Cleanup(func() {
		close(blocked)
		srv.Close()
	})

	c, err := New(srv.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var s slot.Slot
	reqCtx, _ := s.Issue(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := c.ListLeads(reqCtx, query.Filters{}, query.Page{Page: 1, Limit: 20})
		done <- err
	}()

	// Give the first request time to hit the server, then supersede it.
	time.Sleep(50 * time.Millisecond)
	s.Issue(ctx)

	err = <-done
	if !slot.Canceled(err) {
		t.Errorf("superseded request error = %v, want a cancellation", err)
	}
	if !errors.Is(err, slot.ErrSuperseded) {
		t.Errorf("error cause = %v, want ErrSuperseded", err)
	}
}

func TestPersistentCookiesSurviveRestart(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/auth/login": `{"success":true,"user":{"_id":"u1","username":"jo","email":"jo@example.com"}}`,
		"GET /api/auth/me":     `{"success":true,"user":{"_id":"u1","username":"jo","email":"jo@example.com"}}`,
		"GET /api/auth/logout": `{"success":true}`,
	})
	cookiePath := filepath.Join(t.TempDir(), "cookies.json")

	c1, err := NewPersistent(ts.server.URL, 5*time.Second, cookiePath)
	if err != nil {
		t.Fatalf("NewPersistent: %v", err)
	}
	if _, err := c1.Login(ctx, "jo@example.com", "secret1"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	// A fresh client with the same cookie file is still logged in.
	c2, err := NewPersistent(ts.server.URL, 5*time.Second, cookiePath)
	if err != nil {
		t.Fatalf("NewPersistent: %v", err)
	}
	if _, err := c2.Me(ctx); err != nil {
		t.Fatalf("Me after restart: %v", err)
	}
	if got := ts.requests[len(ts.requests)-1].Cookie; got != "sess-1" {
		t.Errorf("restored cookie = %q, want sess-1", got)
	}

	// Logout clears the stored session.
	if err := c2.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	c3, err := NewPersistent(ts.server.URL, 5*time.Second, cookiePath)
	if err != nil {
		t.Fatalf("NewPersistent: %v", err)
	}
	c3.Me(ctx)
	if got := ts.requests[len(ts.requests)-1].Cookie; got != "" {
		t.Errorf("cookie after logout = %q, want empty", got)
	}
}
