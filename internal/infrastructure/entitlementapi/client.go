// Package entitlementapi implements the subscription provider contract
// against the provider's subscriber HTTP API.
package entitlementapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/quotagate/quotagate/internal/domain/subscription"
	"github.com/quotagate/quotagate/internal/shared/biztime"
	"github.com/quotagate/quotagate/internal/shared/config"
	"github.com/quotagate/quotagate/internal/shared/logger"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultRetryMax = 2
	// Maximum response body size for the subscriber API (256KB)
	maxSubscriberResponseSize = 256 << 10
)

// subscriberResponse is the provider's subscriber payload. Entitlements
// are keyed by name; each entry carries its own lifecycle dates.
type subscriberResponse struct {
	Subscriber struct {
		Entitlements map[string]entitlementEntry `json:"entitlements"`
	} `json:"subscriber"`
}

type entitlementEntry struct {
	PurchaseDate *time.Time `json:"purchase_date"`
	ExpiresDate  *time.Time `json:"expires_date"`
	Sandbox      bool       `json:"sandbox"`
}

// Client looks up subscription snapshots over HTTP with retries on
// transient failures.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	apiKey     string
	testMode   bool
	logger     logger.Interface
	now        func() time.Time
}

// NewClient creates a subscriber API client from the provider config.
func NewClient(cfg *config.ProviderConfig, logger logger.Interface) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retryMax := cfg.RetryMax
	if retryMax < 0 {
		retryMax = defaultRetryMax
	}

	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient.Timeout = timeout
	httpClient.RetryMax = retryMax
	httpClient.Logger = nil

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		testMode:   cfg.TestMode,
		logger:     logger,
		now:        biztime.NowUTC,
	}
}

// Ensure Client implements the provider contract
var _ subscription.Provider = (*Client)(nil)

// Lookup fetches the user's active entitlements. An unknown user is a
// normal none snapshot, not an error; transport failures and provider 5xx
// responses are returned as errors for the caller to handle.
func (c *Client) Lookup(ctx context.Context, userID string) (*subscription.Snapshot, error) {
	endpoint := fmt.Sprintf("%s/v1/subscribers/%s", c.baseURL, url.PathEscape(userID))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscriber request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", subscription.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Debugw("subscriber unknown to provider", "user_id", userID)
		return subscription.NoneSnapshot(), nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status code %d", subscription.ErrProviderUnavailable, resp.StatusCode)
	}

	var data subscriberResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSubscriberResponseSize)).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode subscriber response: %w", err)
	}

	return c.snapshotFrom(data), nil
}

// snapshotFrom keeps only the active entries: expiry absent or in the
// future, and not sandbox unless test mode is on. The earliest surviving
// purchase date anchors the monthly window.
func (c *Client) snapshotFrom(data subscriberResponse) *subscription.Snapshot {
	now := c.now()

	names := make([]string, 0, len(data.Subscriber.Entitlements))
	var earliest *time.Time
	for name, entry := range data.Subscriber.Entitlements {
		if entry.ExpiresDate != nil && !entry.ExpiresDate.After(now) {
			continue
		}
		if entry.Sandbox && !c.testMode {
			continue
		}

		names = append(names, name)
		if entry.PurchaseDate != nil && (earliest == nil || entry.PurchaseDate.Before(*earliest)) {
			purchased := entry.PurchaseDate.UTC()
			earliest = &purchased
		}
	}

	return subscription.NewSnapshot(names, earliest)
}
