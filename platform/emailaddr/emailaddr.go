// Package emailaddr validates visitor email addresses against the layered
// rule set used by the lead capture form. Checks run in order and the first
// failing rule wins; the reason strings are part of the API contract and
// surface directly as field-level messages.
// This is part of the platform layer and contains no business logic.
package emailaddr

import "strings"

// Reason identifies which rule rejected the address.
type Reason string

const (
	ReasonRequired      Reason = "required"
	ReasonInvalidFormat Reason = "invalid format"
	ReasonMissingDomain Reason = "missing domain"
	ReasonInvalidExt    Reason = "invalid extension"
	ReasonInvalidDomain Reason = "invalid domain"
)

// messages maps each reason to the visitor-facing field message.
var messages = map[Reason]string{
	ReasonRequired:      "Email is required",
	ReasonInvalidFormat: "Please enter a valid email address (e.g., user@example.com)",
	ReasonMissingDomain: "Email must include a domain (e.g., example.com)",
	ReasonInvalidExt:    "Email must end with a valid domain extension (e.g., .com, .org)",
	ReasonInvalidDomain: "Please enter a valid email domain",
}

// ValidationError reports a failed email check.
type ValidationError struct {
	Reason Reason
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return string(e.Reason)
}

// Message returns the visitor-facing message for the failure.
func (e *ValidationError) Message() string {
	return messages[e.Reason]
}

// Validate runs the sequential rule set against a candidate address.
// It returns nil when every rule passes, otherwise a *ValidationError
// carrying the first failing reason.
func Validate(email string) error {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return &ValidationError{Reason: ReasonRequired}
	}

	local, domain, ok := splitAddress(trimmed)
	if !ok || local == "" || domain == "" {
		return &ValidationError{Reason: ReasonInvalidFormat}
	}

	if !strings.Contains(domain, ".") {
		return &ValidationError{Reason: ReasonMissingDomain}
	}

	tld := domain[strings.LastIndex(domain, ".")+1:]
	if len(tld) < 2 {
		return &ValidationError{Reason: ReasonInvalidExt}
	}

	if !validHostname(domain) {
		return &ValidationError{Reason: ReasonInvalidDomain}
	}

	return nil
}

// splitAddress enforces the local@domain shape: exactly one @ and no
// whitespace anywhere.
func splitAddress(email string) (local, domain string, ok bool) {
	if strings.ContainsAny(email, " \t") {
		return "", "", false
	}
	at := strings.Index(email, "@")
	if at < 0 || strings.Contains(email[at+1:], "@") {
		return "", "", false
	}
	return email[:at], email[at+1:], true
}

// validHostname checks the domain against a label-based hostname grammar:
// dot-separated labels of 1-63 alphanumerics/hyphens, not starting or
// ending with a hyphen.
func validHostname(domain string) bool {
	labels := strings.Split(domain, ".")
	for _, label := range labels {
		if !validLabel(label) {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-':
			if i == 0 || i == len(label)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
