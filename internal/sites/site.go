package sites

import (
	"regexp"
	"strings"
	"time"
)

const (
	MinIdentifierLen = 3
	MaxIdentifierLen = 30
)

var identifierPattern = regexp.MustCompile(`^[a-z0-9-]{3,30}$`)

// State is the custom domain lifecycle state of a site.
type State string

const (
	StateNoDomain            State = "no_domain"
	StatePendingVerification State = "pending_verification"
	StateVerified            State = "verified"
)

// Site is one published site.
type Site struct {
	UpdatedAt         time.Time `json:"updatedAt"`
	Identifier        string    `json:"identifier"`
	Content           string    `json:"content"`
	OwnerID           string    `json:"ownerId"`
	CustomDomain      string    `json:"customDomain,omitempty"`
	VerificationToken string    `json:"verificationToken,omitempty"`
	Verified          bool      `json:"verified"`
}

// State derives the domain lifecycle state from the record fields.
func (s *Site) State() State {
	switch {
	case s.CustomDomain == "":
		return StateNoDomain
	case s.Verified:
		return StateVerified
	default:
		return StatePendingVerification
	}
}

// Clone returns a copy that can be mutated independently.
func (s *Site) Clone() *Site {
	c := *s
	return &c
}

// NormalizeIdentifier lowercases and trims an identifier.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidIdentifier reports whether s is 3-30 characters of [a-z0-9-].
// The input must already be normalized.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

func (s *Site) validate() error {
	if !ValidIdentifier(s.Identifier) {
		return ErrInvalidIdentifier
	}
	if s.OwnerID == "" {
		return ErrInvalidRecord
	}
	if s.Verified && s.CustomDomain == "" {
		return ErrInvalidRecord
	}
	return nil
}
