// Package graphql implements the cards query executor against a GraphQL endpoint.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/aretw0/homeview/internal/logging"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// DefaultMaxResponseSize caps the bytes read from one response.
const DefaultMaxResponseSize = 4 << 20

// collectionName is a GraphQL field name. It also keeps the name free of
// gjson path syntax.
var collectionName = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// ValidateCollection reports whether name can be queried as a collection.
func ValidateCollection(name string) error {
	if !collectionName.MatchString(name) {
		return fmt.Errorf("invalid collection name %q: must match %s", name, collectionName)
	}
	return nil
}

// Client implements ports.QueryExecutor[domain.CardsPayload].
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithMaxResponseSize caps the response body; larger responses fail the query.
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		c.maxBytes = n
	}
}

// WithLogger sets a custom structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client posting to endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
		maxBytes: DefaultMaxResponseSize,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Query string `json:"query"`
}

// Execute posts desc and decodes data.<collection>.items.
// Transport failures, non-2xx statuses and GraphQL errors wrap domain.ErrQueryFailed;
// a response without the items array wraps domain.ErrMalformedResponse.
func (c *Client) Execute(ctx context.Context, desc domain.QueryDescriptor) (domain.CardsPayload, error) {
	if err := ValidateCollection(desc.Collection); err != nil {
		return domain.CardsPayload{}, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}

	body, err := json.Marshal(request{Query: Build(desc)})
	if err != nil {
		return domain.CardsPayload{}, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.CardsPayload{}, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.CardsPayload{}, ctx.Err()
		}
		return domain.CardsPayload{}, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return domain.CardsPayload{}, fmt.Errorf("%w: reading response: %v", domain.ErrQueryFailed, err)
	}
	if int64(len(raw)) > c.maxBytes {
		return domain.CardsPayload{}, fmt.Errorf("%w: response exceeds %d bytes", domain.ErrQueryFailed, c.maxBytes)
	}
	c.logger.Debug("GraphQL: response", "collection", desc.Collection, "status", resp.StatusCode, "bytes", len(raw), "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.CardsPayload{}, fmt.Errorf("%w: unexpected status %d", domain.ErrQueryFailed, resp.StatusCode)
	}
	if !gjson.ValidBytes(raw) {
		return domain.CardsPayload{}, fmt.Errorf("%w: response is not JSON", domain.ErrMalformedResponse)
	}

	if msg := gjson.GetBytes(raw, "errors.0.message"); msg.Exists() {
		return domain.CardsPayload{}, fmt.Errorf("%w: %s", domain.ErrQueryFailed, msg.String())
	}

	items := gjson.GetBytes(raw, "data."+desc.Collection+".items")
	if !items.IsArray() {
		return domain.CardsPayload{}, fmt.Errorf("%w: data.%s.items missing", domain.ErrMalformedResponse, desc.Collection)
	}

	cards, err := decodeItems(items.Value())
	if err != nil {
		return domain.CardsPayload{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return domain.CardsPayload{Items: cards}, nil
}

// decodeItems maps the generic JSON array onto cards. Null nested objects
// decode to zero values.
func decodeItems(v any) ([]domain.Card, error) {
	cards := []domain.Card{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cards,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, err
	}
	return cards, nil
}
