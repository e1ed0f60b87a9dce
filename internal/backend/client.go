// Package backend talks to the remote journal service. The wire format is
// deliberately thin: the core only needs client registration, a data-sync
// trigger, and the identity endpoints that exchange provider tokens for one
// backend credential.
package backend

import (
	"context"
	"time"
)

// Credential is the single backend credential shared by all linked
// identity providers.
type Credential struct {
	AccountID string    `json:"account_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Client is the transport-facing surface used by the sync orchestrator and
// the identity service. All operations are idempotent server-side:
// registering a registered client or re-requesting a sync is a no-op.
type Client interface {
	// RegisterClient registers this device under the given account.
	RegisterClient(ctx context.Context, accountID, clientID string) error

	// SyncData asks the backend for everything changed since sinceVersion
	// and returns the new high-water mark.
	SyncData(ctx context.Context, sinceVersion int64) (int64, error)

	// SignIn exchanges a provider token for the backend credential.
	SignIn(ctx context.Context, provider, providerToken string) (*Credential, error)

	// SignUp registers a new account with an email identifier and secret.
	// Failures map onto common.ErrWeakCredential, common.ErrInvalidIdentifier
	// and common.ErrIdentifierInUse so the caller can target the right
	// form field.
	SignUp(ctx context.Context, identifier string, secret []byte) (*Credential, error)

	// SignOut invalidates the backend credential. Best-effort.
	SignOut(ctx context.Context, token string) error

	// SetToken installs the bearer credential used on authenticated calls.
	// An empty token clears it.
	SetToken(token string)

	Close() error
}
