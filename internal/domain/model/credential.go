package model

import (
	"fmt"
	"time"
)

// NeverExpires is the ValiditySeconds sentinel for a code that is good forever.
const NeverExpires = -1

// Credential is a single keypad access code. Code is the identity key and never
// changes once constructed; Enabled is the only mutable field.
type Credential struct {
	Code            string
	CreatedAt       time.Time
	ValiditySeconds int
	Enabled         bool
}

// NewCredential builds an enabled credential and rejects malformed input with
// ErrMalformedCredential.
func NewCredential(code string, createdAt time.Time, validitySeconds int) (*Credential, error) {
	c := &Credential{
		Code:            code,
		CreatedAt:       createdAt,
		ValiditySeconds: validitySeconds,
		Enabled:         true,
	}
	if err := c.checkWellFormed(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports why the credential cannot be used at now. Checks run in a
// fixed order: well-formedness, disabled, expired.
func (c *Credential) Validate(now time.Time) error {
	if err := c.checkWellFormed(); err != nil {
		return err
	}
	if !c.Enabled {
		return fmt.Errorf("code %s: %w", c.Code, ErrDisabled)
	}
	if c.Expired(now) {
		return fmt.Errorf("code %s: %w", c.Code, ErrExpired)
	}
	return nil
}

// Expired returns true once now reaches CreatedAt + ValiditySeconds.
func (c *Credential) Expired(now time.Time) bool {
	if c.ValiditySeconds == NeverExpires {
		return false
	}
	expiresAt := c.CreatedAt.Add(time.Duration(c.ValiditySeconds) * time.Second)
	return !now.Before(expiresAt)
}

func (c *Credential) checkWellFormed() error {
	if !IsDigits(c.Code) {
		return fmt.Errorf("code %q is not a string of digits: %w", c.Code, ErrMalformedCredential)
	}
	if c.CreatedAt.IsZero() {
		return fmt.Errorf("code %s has no creation time: %w", c.Code, ErrMalformedCredential)
	}
	if c.ValiditySeconds < 0 && c.ValiditySeconds != NeverExpires {
		return fmt.Errorf("code %s has negative validity %d: %w", c.Code, c.ValiditySeconds, ErrMalformedCredential)
	}
	return nil
}

// IsDigits returns true for a non-empty string made only of ASCII decimal digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsDigit(s[i]) {
			return false
		}
	}
	return true
}

// IsDigit returns true for the bytes '0' through '9'.
func IsDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
