package model

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry is the set of credentials currently accepted at the keypad, keyed by
// code. Entries are never removed; Disable is the only revocation.
//
// A Registry built by the loader is fully populated before anyone else sees it,
// so readers never observe a half-loaded set.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Credential
	now     func() time.Time
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. now supplies the time used for expiry
// checks; nil means time.Now. logger records revocations and updates; nil means
// slog.Default().
func NewRegistry(now func() time.Time, logger *slog.Logger) *Registry {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]*Credential),
		now:     now,
		logger:  logger,
	}
}

// Add validates c and inserts it. It returns ErrDuplicateCredential if the code
// is already present; use Update to replace an existing entry.
func (r *Registry) Add(c *Credential) error {
	if err := c.Validate(r.now()); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[c.Code]; ok {
		return fmt.Errorf("code %s: %w", c.Code, ErrDuplicateCredential)
	}
	r.entries[c.Code] = c
	return nil
}

// Get returns the credential for code, or nil if it is absent.
func (r *Registry) Get(code string) *Credential {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[code]
}

// Check returns true iff code is present and currently valid. Validation
// failures are folded into false.
func (r *Registry) Check(code string) bool {
	c := r.Get(code)
	if c == nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return c.Validate(r.now()) == nil
}

// Verify is Check with the reason: nil when code is usable, otherwise an error
// wrapping ErrUnknownCredential, ErrMalformedCredential, ErrDisabled or ErrExpired.
func (r *Registry) Verify(code string) error {
	c := r.Get(code)
	if c == nil {
		return fmt.Errorf("code %s: %w", code, ErrUnknownCredential)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return c.Validate(r.now())
}

// Disable revokes code. The credential stays in the registry.
func (r *Registry) Disable(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.entries[code]
	if !ok {
		return fmt.Errorf("code %s: %w", code, ErrUnknownCredential)
	}
	c.Enabled = false

	r.logger.Info("credential disabled", "code", code)
	return nil
}

// Update inserts c or replaces the existing entry with the same code, skipping
// the duplicate check that Add performs. c must still be well formed.
func (r *Registry) Update(c *Credential) error {
	if err := c.checkWellFormed(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[c.Code] = c

	r.logger.Info("credential updated", "code", c.Code)
	return nil
}

// Len returns the number of credentials, enabled or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Codes returns every code in ascending order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.entries))
	for code := range r.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
