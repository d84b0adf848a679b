// Package query builds the server-side filter grammar for the leads
// listing endpoint. Encoding is pure: the same filters and pagination
// always produce the same parameter set, and unset fields are omitted
// entirely rather than sent empty.
package query

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Lead status values accepted by the server.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusLost      = "lost"
	StatusWon       = "won"
)

// Lead source values accepted by the server.
const (
	SourceWebsite     = "website"
	SourceFacebookAds = "facebook_ads"
	SourceGoogleAds   = "google_ads"
	SourceReferral    = "referral"
	SourceEvents      = "events"
	SourceOther       = "other"
)

// Statuses lists the valid status tokens in display order.
var Statuses = []string{StatusNew, StatusContacted, StatusQualified, StatusLost, StatusWon}

// Sources lists the valid source tokens in display order.
var Sources = []string{SourceWebsite, SourceFacebookAds, SourceGoogleAds, SourceReferral, SourceEvents, SourceOther}

// Range is an optional numeric interval. A nil bound is open.
type Range struct {
	GreaterThan *float64 `json:"gt,omitempty"`
	LessThan    *float64 `json:"lt,omitempty"`
}

// IsZero reports whether neither bound is set.
func (r Range) IsZero() bool {
	return r.GreaterThan == nil && r.LessThan == nil
}

// DateRange is an optional timestamp interval. A nil bound is open.
type DateRange struct {
	After  *time.Time `json:"after,omitempty"`
	Before *time.Time `json:"before,omitempty"`
}

// IsZero reports whether neither bound is set.
func (d DateRange) IsZero() bool {
	return d.After == nil && d.Before == nil
}

// Filters is the user-editable filter set for the leads list.
type Filters struct {
	Search  string
	Status  string
	Source  string
	Score   Range
	Value   Range
	Created DateRange
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.Status == "" && f.Source == "" &&
		f.Score.IsZero() && f.Value.IsZero() && f.Created.IsZero()
}

// Equal reports whether two filter sets describe the same query.
// Pointer bounds compare by value, not identity.
func (f Filters) Equal(o Filters) bool {
	return strings.TrimSpace(f.Search) == strings.TrimSpace(o.Search) &&
		f.Status == o.Status && f.Source == o.Source &&
		floatEqual(f.Score.GreaterThan, o.Score.GreaterThan) &&
		floatEqual(f.Score.LessThan, o.Score.LessThan) &&
		floatEqual(f.Value.GreaterThan, o.Value.GreaterThan) &&
		floatEqual(f.Value.LessThan, o.Value.LessThan) &&
		timeEqual(f.Created.After, o.Created.After) &&
		timeEqual(f.Created.Before, o.Created.Before)
}

func floatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// Page is 1-based pagination state. Total and TotalPages are
// server-reported and not part of the encoded query.
type Page struct {
	Page  int
	Limit int
}

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 20

// Normalize canonicalizes an enum token: lowercased, interior
// whitespace collapsed to underscores ("Facebook Ads" -> "facebook_ads").
func Normalize(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(v))), "_")
}

// Encode maps filters and pagination onto the query parameters the
// server expects. page and limit are always present; everything else is
// included only when set. Range filters collapse into a single JSON
// value per key.
func Encode(f Filters, p Page) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.Limit))

	if s := strings.TrimSpace(f.Search); s != "" {
		v.Set("search", s)
	}
	if f.Status != "" {
		v.Set("status", Normalize(f.Status))
	}
	if f.Source != "" {
		v.Set("source", Normalize(f.Source))
	}
	if !f.Score.IsZero() {
		v.Set("score", encodeJSON(f.Score))
	}
	if !f.Value.IsZero() {
		v.Set("lead_value", encodeJSON(f.Value))
	}
	if !f.Created.IsZero() {
		v.Set("created_at", encodeJSON(f.Created))
	}
	return v
}

func encodeJSON(v any) string {
	// Marshalling Range/DateRange cannot fail.
	b, _ := json.Marshal(v)
	return string(b)
}

// Float returns a pointer to v, for building Range literals.
func Float(v float64) *float64 { return &v }

// Time returns a pointer to t, for building DateRange literals.
func Time(t time.Time) *time.Time { return &t }
