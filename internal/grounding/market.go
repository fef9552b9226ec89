// Package grounding supplies optional market/competitive snapshot data
// referenced by committee prompts via evidence tags. Absence of this data
// is never an error; prompts simply omit the evidence block and evidence
// coverage drops.
package grounding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prediktfi/idea-committee/internal/resilience"
)

// EvidenceTag is the marked reference token prompts use to cite the
// market snapshot.
const EvidenceTag = "[evidence:market-snapshot]"

// Snapshot is a point-in-time market/competitive context block.
type Snapshot struct {
	Sector      string    `json:"sector"`
	Competitors []string  `json:"competitors"`
	MarketNote  string    `json:"market_note"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Provider fetches a grounding snapshot for a free-text query. A nil
// snapshot with a nil error means no data was available.
type Provider interface {
	Fetch(ctx context.Context, query string) (*Snapshot, error)
}

// HTTPProvider fetches snapshots from a market-data service.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	breaker *resilience.CircuitBreaker
}

// NewHTTPProvider creates a provider against the given base URL.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			RecoveryTimeout:  60 * time.Second,
		}),
	}
}

// Fetch implements Provider.
func (p *HTTPProvider) Fetch(ctx context.Context, query string) (*Snapshot, error) {
	var snapshot *Snapshot

	err := p.breaker.Call(func() error {
		endpoint := fmt.Sprintf("%s/snapshot?q=%s", p.baseURL, url.QueryEscape(query))

		resp, err := resilience.RetryHTTP(ctx, resilience.DefaultRetryConfig(), func() (*http.Response, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return nil, err
			}
			return p.client.Do(req)
		})
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			// No data for this query; not an error.
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("market data service returned %d", resp.StatusCode)
		}

		var s Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
			return fmt.Errorf("failed to decode snapshot: %w", err)
		}

		snapshot = &s
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// NoopProvider always reports no data, used when no market-data service
// is configured.
type NoopProvider struct{}

// Fetch implements Provider.
func (NoopProvider) Fetch(ctx context.Context, query string) (*Snapshot, error) {
	return nil, nil
}
