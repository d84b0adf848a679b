package leadapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// persistentJar is a cookie jar that mirrors the API host's cookies to a
// JSON file, so separate CLI invocations share one logged-in session the
// way a browser would.
type persistentJar struct {
	mu    sync.Mutex
	inner http.CookieJar
	path  string
	base  *url.URL
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func newPersistentJar(path string, base *url.URL) (*persistentJar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	j := &persistentJar{inner: inner, path: path, base: base}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return j, nil
		}
		return nil, fmt.Errorf("reading cookie file: %w", err)
	}
	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		// A corrupt cookie file just means a fresh session.
		return j, nil
	}
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	inner.SetCookies(base, cookies)
	return j, nil
}

func (j *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
	j.saveLocked()
}

// clear drops all cookies for the API host and removes the file. Used by
// logout so the local session dies even when the server call fails.
func (j *persistentJar) clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}); err == nil {
		j.inner = inner
	}
	os.Remove(j.path)
}

func (j *persistentJar) saveLocked() {
	current := j.inner.Cookies(j.base)
	saved := make([]savedCookie, 0, len(current))
	for _, c := range current {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(saved)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return
	}
	// Best effort: a failed save costs a re-login, nothing more.
	os.WriteFile(j.path, data, 0o600)
}
