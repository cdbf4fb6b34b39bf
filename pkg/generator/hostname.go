package generator

import (
	"fmt"
	"strings"
)

const (
	maxHostnameLength = 253
	maxLabelLength    = 63
)

// ValidationMode selects what happens to peer names that are not valid
// hostnames.
type ValidationMode string

const (
	// ValidationOff renders every name as-is.
	ValidationOff ValidationMode = "off"

	// ValidationSkip logs and drops invalid names.
	ValidationSkip ValidationMode = "skip"

	// ValidationReject fails generation with an InvalidPeerNameError.
	ValidationReject ValidationMode = "reject"
)

// ParseValidationMode parses a mode name. The empty string maps to
// ValidationSkip.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch ValidationMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ValidationSkip:
		return ValidationSkip, nil
	case ValidationOff:
		return ValidationOff, nil
	case ValidationReject:
		return ValidationReject, nil
	default:
		return "", fmt.Errorf("invalid hostname validation mode: %q (must be off, skip or reject)", s)
	}
}

// ValidHostname reports whether name can be used as both a server_name and
// a proxy_pass host. Labels are 1 to 63 characters of letters, digits,
// '-' and '_', and may not start or end with '-'. Underscores are allowed
// because Docker container names routinely contain them.
func ValidHostname(name string) bool {
	if name == "" || len(name) > maxHostnameLength {
		return false
	}

	for _, label := range strings.Split(name, ".") {
		if !validLabel(label) {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	if len(label) == 0 || len(label) > maxLabelLength {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

// InvalidPeerNameError is returned in reject mode when discovery reported
// names that are not valid hostnames. Nothing has been written when it is
// returned.
type InvalidPeerNameError struct {
	Names []string
}

// Error implements the error interface.
func (e *InvalidPeerNameError) Error() string {
	quoted := make([]string, len(e.Names))
	for i, n := range e.Names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return fmt.Sprintf("invalid peer name(s): %s", strings.Join(quoted, ", "))
}
