package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/reelmates/reelmates/pkg/reelmates/models"
)

// Ensure Client implements Describer
var _ Describer = (*Client)(nil)

// Client fetches metadata from an HTTP catalog service. Calls go through a
// circuit breaker so a down catalog fails fast instead of stalling every
// match computation.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[Details]
}

// NewClient creates a catalog client for the given base URL. The service is
// expected to answer GET {base}/{kind}/{id} with {"title": ..., "poster": ...}.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[Details](gobreaker.Settings{
			Name:    "media-catalog",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Describe looks up metadata for one content item.
func (c *Client) Describe(ctx context.Context, contentID int64, kind models.MediaKind) (Details, error) {
	return c.breaker.Execute(func() (Details, error) {
		url := fmt.Sprintf("%s/%s/%d", c.baseURL, kind, contentID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Details{}, err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return Details{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return Details{}, fmt.Errorf("catalog returned status %d for %s %d", resp.StatusCode, kind, contentID)
		}

		var details Details
		if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
			return Details{}, fmt.Errorf("failed to decode catalog response: %w", err)
		}
		return details, nil
	})
}
