// Package geo normalizes French postal addresses through the national address API.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultSearchURL = "https://api-adresse.data.gouv.fr/search/"
	userAgent        = "homees/1.0"

	// minScore below which a match is considered a guess and rejected.
	minScore = 0.4
)

// Result is a normalized address.
type Result struct {
	Label      string  `json:"label"`
	Ville      string  `json:"ville"`
	CodePostal string  `json:"code_postal"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Score      float64 `json:"score"`
}

// Client looks up addresses.
type Client struct {
	httpClient *http.Client

	// Overridable for testing.
	searchURL string
}

// NewClient creates a geocoding client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		searchURL:  defaultSearchURL,
	}
}

// searchResponse is the GeoJSON FeatureCollection returned by the search API.
type searchResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Properties struct {
			Label    string  `json:"label"`
			City     string  `json:"city"`
			Postcode string  `json:"postcode"`
			Score    float64 `json:"score"`
		} `json:"properties"`
	} `json:"features"`
}

// Lookup resolves a free-form address to its best match.
func (c *Client) Lookup(ctx context.Context, address string) (result *Result, err error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	params := url.Values{
		"q":     {address},
		"limit": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(body.Features) == 0 {
		return nil, fmt.Errorf("no address found for: %s", address)
	}

	f := body.Features[0]
	if f.Properties.Score < minScore {
		return nil, fmt.Errorf("no confident match for %q (score %.2f)", address, f.Properties.Score)
	}

	result = &Result{
		Label:      f.Properties.Label,
		Ville:      f.Properties.City,
		CodePostal: f.Properties.Postcode,
		Score:      f.Properties.Score,
	}
	if len(f.Geometry.Coordinates) == 2 {
		result.Lon = f.Geometry.Coordinates[0]
		result.Lat = f.Geometry.Coordinates[1]
	}

	return result, nil
}
