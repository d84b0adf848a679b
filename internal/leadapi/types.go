package leadapi

import "time"

// User is the authenticated identity returned by the auth endpoints.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Lead is a sales-prospect record. Field names follow the server's wire
// format; the client passes everything except the identifier through
// unvalidated.
type Lead struct {
	ID             string     `json:"_id,omitempty"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	Company        string     `json:"company,omitempty"`
	City           string     `json:"city,omitempty"`
	State          string     `json:"state,omitempty"`
	Status         string     `json:"status"`
	Source         string     `json:"source"`
	Score          float64    `json:"score,omitempty"`
	LeadValue      float64    `json:"lead_value,omitempty"`
	IsQualified    bool       `json:"is_qualified,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	CreatedAt      time.Time  `json:"createdAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt,omitempty"`
}

// ListResult is one server page of leads plus the pagination totals.
// Rows stay in server order; the client never re-sorts.
type ListResult struct {
	Data       []Lead `json:"data"`
	Total      int    `json:"total"`
	TotalPages int    `json:"totalPages"`
}

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// authEnvelope is the common shape of auth endpoint responses. Some
// deployments put the user under "user", older ones under "data".
type authEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	User    *User  `json:"user,omitempty"`
	Data    *User  `json:"data,omitempty"`
}

func (e authEnvelope) user() *User {
	if e.User != nil {
		return e.User
	}
	return e.Data
}
