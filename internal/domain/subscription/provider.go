package subscription

import (
	"context"
	"errors"
)

// ErrProviderUnavailable wraps transport failures, timeouts and 5xx
// responses from the subscription provider. A user unknown to the provider
// is not an error; Lookup returns the none snapshot for them.
var ErrProviderUnavailable = errors.New("subscription provider unavailable")

// Provider resolves a user's current subscription state. Implementations
// must only return active entitlements: entries whose expiry is absent or
// in the future, with sandbox entries filtered out unless the provider is
// configured for test mode.
type Provider interface {
	Lookup(ctx context.Context, userID string) (*Snapshot, error)
}
