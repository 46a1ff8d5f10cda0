package holidays

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starford/almanac/internal/apperr"
)

// DefaultNagerURL is the public Nager.Date endpoint.
const DefaultNagerURL = "https://date.nager.at"

// maxBody bounds how much of an untrusted response is read.
const maxBody = 1 << 20

// NagerClient fetches public holidays from the Nager.Date v3 API.
type NagerClient struct {
	baseURL string
	country string
	client  *http.Client
}

// NewNagerClient creates a client for country (ISO 3166-1 alpha-2).
func NewNagerClient(baseURL, country string, timeout time.Duration) *NagerClient {
	if baseURL == "" {
		baseURL = DefaultNagerURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NagerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		country: strings.ToUpper(country),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch returns the holidays for year.
func (c *NagerClient) Fetch(ctx context.Context, year int) ([]Holiday, error) {
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", c.baseURL, year, c.country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("holidays: build request: %w: %w", apperr.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holidays: fetch %d/%s: %w: %w", year, c.country, apperr.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("holidays: read body: %w: %w", apperr.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holidays: nager returned status %d: %w", resp.StatusCode, apperr.ErrNetwork)
	}
	return Decode(body)
}
