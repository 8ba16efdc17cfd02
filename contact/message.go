package contact

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxMessageLength is the longest message body accepted from the form
const MaxMessageLength = 5000

var ErrNotFound = errors.New("message not found")

// Submission is the body posted by the contact form
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Message is a stored contact form submission
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidationError lists every field that failed validation
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range []string{"name", "email", "message"} {
		if reason, ok := e.Fields[field]; ok {
			parts = append(parts, fmt.Sprintf("%s %s", field, reason))
		}
	}
	return "invalid submission: " + strings.Join(parts, ", ")
}

// Normalize trims surrounding whitespace from every field
func (s Submission) Normalize() Submission {
	return Submission{
		Name:    strings.TrimSpace(s.Name),
		Email:   strings.TrimSpace(s.Email),
		Message: strings.TrimSpace(s.Message),
	}
}

// Validate checks a normalized submission. It returns a *ValidationError
// when any field is rejected.
func (s Submission) Validate() error {
	fields := make(map[string]string)

	if s.Name == "" {
		fields["name"] = "is required"
	}

	switch {
	case s.Email == "":
		fields["email"] = "is required"
	case !validEmail(s.Email):
		fields["email"] = "is not a valid address"
	}

	switch {
	case s.Message == "":
		fields["message"] = "is required"
	case len([]rune(s.Message)) > MaxMessageLength:
		fields["message"] = fmt.Sprintf("must be at most %d characters", MaxMessageLength)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// validEmail only requires text on both sides of an @ and no whitespace
func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}
