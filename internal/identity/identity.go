// Package identity resolves the caller's identity for request attribution
// and the admin capability check.
package identity

import (
	"strings"

	"formdesk/app/internal/bridge"
)

// Resolver derives the session identity once and keeps it immutable for the
// lifetime of the process. The host-supplied identity wins; a debug override
// covers headless testing outside the host.
type Resolver struct {
	userID  string
	adminID string
}

// NewResolver resolves the identity from the bridge, falling back to
// debugOverride when the host supplies none.
func NewResolver(b bridge.Bridge, debugOverride, adminID string) *Resolver {
	userID := strings.TrimSpace(b.UserID())
	if userID == "" {
		userID = strings.TrimSpace(debugOverride)
	}
	return &Resolver{userID: userID, adminID: adminID}
}

// UserID returns the resolved identity, empty when neither source had one.
func (r *Resolver) UserID() string {
	return r.userID
}

// IsAdmin reports whether the resolved identity exactly equals the
// configured administrator identity.
func (r *Resolver) IsAdmin() bool {
	return r.adminID != "" && r.userID == r.adminID
}
