package session

import (
	"regexp"

	"leadctl/internal/leadapi"
)

// Same loose shape the server accepts; real verification is its job.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

const minPasswordLen = 6

func validateCredentials(email, password string) string {
	switch {
	case email == "":
		return "Email is required"
	case !emailPattern.MatchString(email):
		return "Email address is invalid"
	case password == "":
		return "Password is required"
	case len(password) < minPasswordLen:
		return "Password must be at least 6 characters"
	}
	return ""
}

func validateRegistration(req leadapi.RegisterRequest) string {
	if req.Username == "" {
		return "Username is required"
	}
	if msg := validateCredentials(req.Email, req.Password); msg != "" {
		return msg
	}
	if req.Password != req.ConfirmPassword {
		return "Passwords do not match"
	}
	return ""
}
