// Package profile fetches the signed-in user's profile and feeds it into the store.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/pkg/domain"
)

// DefaultURL is the random-identity endpoint the home screen used for its avatar.
const DefaultURL = "https://uinames.com/api/?ext"

// Fetcher implements ports.ProfileFetcher over HTTP.
type Fetcher struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// FetcherOption configures the Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.http = hc
	}
}

// WithFetcherLogger sets a custom structured logger for the Fetcher.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher for url. An empty url means DefaultURL.
func NewFetcher(url string, opts ...FetcherOption) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	f := &Fetcher{
		url:    url,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs the profile document ({"photo": ..., "name": ...}).
func (f *Fetcher) Fetch(ctx context.Context) (domain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.Profile{}, fmt.Errorf("failed to fetch profile: unexpected status %d", resp.StatusCode)
	}

	var p domain.Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: profile: %v", domain.ErrMalformedResponse, err)
	}
	f.logger.Debug("Profile: fetched", "name", p.Name)
	return p, nil
}
