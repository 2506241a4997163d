// Package ratings calls the external ratings service for a book's aggregate
// scores. The call sits on the book page's critical path, so failures are
// returned to the handler rather than swallowed.
package ratings

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/readingroom/bookreviews/pkg/logger"
)

// Aggregate is the external service's view of one book.
type Aggregate struct {
	RatingsCount  int64
	AverageRating string
}

// Client queries the ratings endpoint keyed by ISBN.
type Client struct {
	client   *http.Client
	endpoint *url.URL
	apiKey   string
	log      *logger.Logger
}

// New constructs a client for the given endpoint and API key.
func New(client *http.Client, endpoint, apiKey string, log *logger.Logger) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("ratings endpoint required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse ratings endpoint: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("ratings")
	}
	return &Client{
		client:   client,
		endpoint: parsed,
		apiKey:   strings.TrimSpace(apiKey),
		log:      log,
	}, nil
}

// Lookup fetches the aggregate ratings for one ISBN. The response carries a
// "books" array; the first element holds ratings_count and average_rating.
func (c *Client) Lookup(ctx context.Context, isbn string) (Aggregate, error) {
	requestURL := *c.endpoint
	q := requestURL.Query()
	q.Set("key", c.apiKey)
	q.Set("isbns", isbn)
	requestURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL.String(), nil)
	if err != nil {
		return Aggregate{}, fmt.Errorf("build ratings request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Aggregate{}, fmt.Errorf("ratings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Aggregate{}, fmt.Errorf("ratings status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Aggregate{}, fmt.Errorf("read ratings response: %w", err)
	}

	first := gjson.GetBytes(body, "books.0")
	if !first.Exists() {
		return Aggregate{}, fmt.Errorf("ratings response missing books for isbn %s", isbn)
	}

	agg := Aggregate{
		RatingsCount:  first.Get("ratings_count").Int(),
		AverageRating: first.Get("average_rating").String(),
	}
	c.log.WithField("isbn", isbn).WithField("ratings_count", agg.RatingsCount).Debug("ratings lookup")
	return agg, nil
}
