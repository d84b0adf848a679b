package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Lead struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Company        string
	City           string
	State          string
	Status         string
	Source         string
	Score          float64
	LeadValue      float64
	IsQualified    bool
	LastActivityAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LeadQuery is the parsed filter/pagination grammar of the list
// endpoint. Nil bounds are open.
type LeadQuery struct {
	Search        string
	Status        string
	Source        string
	ScoreGT       *float64
	ScoreLT       *float64
	ValueGT       *float64
	ValueLT       *float64
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          int
	Limit         int
}
