package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultBaseURL = "https://dolarapi.com"

	bluePath     = "/v1/dolares/blue"
	officialPath = "/v1/dolares/oficial"
)

type (
	// Quote holds one market's buy/sell prices and their midpoint.
	Quote struct {
		Avg  float64 `json:"avg"`
		Buy  float64 `json:"buy"`
		Sell float64 `json:"sell"`
	}

	// Snapshot is one fetch of both USD/ARS markets.
	Snapshot struct {
		Blue      Quote     `json:"blue"`
		Official  Quote     `json:"official"`
		FetchedAt time.Time `json:"fetchedAt"`
	}

	// Client fetches USD/ARS quotes from the dolarapi.com public API.
	Client struct {
		baseURL    string
		httpClient *http.Client
	}
)

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// Fetch retrieves blue and official quotes concurrently. Either request
// failing fails the whole snapshot; partial snapshots are never returned.
func (c *Client) Fetch(ctx context.Context) (Snapshot, error) {
	var blue, official Quote

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := c.fetchQuote(ctx, bluePath)
		if err != nil {
			return fmt.Errorf("fetch blue rate: %w", err)
		}
		blue = q
		return nil
	})
	g.Go(func() error {
		q, err := c.fetchQuote(ctx, officialPath)
		if err != nil {
			return fmt.Errorf("fetch official rate: %w", err)
		}
		official = q
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Blue: blue, Official: official}, nil
}

func (c *Client) fetchQuote(ctx context.Context, path string) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("request %s: unexpected status %s", path, resp.Status)
	}

	var body struct {
		Compra float64 `json:"compra"`
		Venta  float64 `json:"venta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("decode %s response: %w", path, err)
	}

	return Quote{
		Avg:  (body.Compra + body.Venta) / 2,
		Buy:  body.Compra,
		Sell: body.Venta,
	}, nil
}
