// Package catalog is the HTTP client for the remote Lorcana card catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/loapalette/companion/internal/lorcana/cards"
)

const (
	// DefaultBaseURL is the public catalog endpoint.
	DefaultBaseURL = "https://api.lorcana-api.com"

	// rateLimitDelay spaces requests out of politeness to the public API.
	rateLimitDelay = 100 * time.Millisecond

	userAgent = "loapalette-companion/1.0"
)

// Page is one page of normalized catalog results.
type Page struct {
	Cards    []cards.Card
	Page     int
	PageSize int
}

// Client performs list and search requests against the catalog API. It issues
// exactly one GET per call, never retries, and imposes no timeout of its own
// beyond the transport's defaults; both policies belong to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewClient creates a catalog client. An empty baseURL selects the public
// endpoint.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		log:        logger,
	}
}

// List fetches one page of the full catalog.
func (c *Client) List(ctx context.Context, page, pageSize int) (*Page, error) {
	return c.fetch(ctx, "/cards/all", "", page, pageSize)
}

// Search fetches one page of cards matching expr. The expression is an opaque
// pre-built filter string in the upstream query grammar; building it from
// structured criteria is the caller's concern.
func (c *Client) Search(ctx context.Context, expr string, page, pageSize int) (*Page, error) {
	return c.fetch(ctx, "/cards/fetch", expr, page, pageSize)
}

func (c *Client) fetch(ctx context.Context, path, expr string, page, pageSize int) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Err: err}
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("pagesize", strconv.Itoa(pageSize))
	if expr != "" {
		params.Set("search", expr)
	}
	requestURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", requestURL).Msg("catalog request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	result, err := decodePage(body, page, pageSize)
	if err != nil {
		return nil, err
	}

	c.log.Debug().Int("page", page).Int("cards", len(result.Cards)).Msg("catalog response")
	return result, nil
}

// decodePage interprets a 2xx response body: either a JSON array of card
// objects in one of the two upstream shapes, or the API's error envelope.
func decodePage(body []byte, page, pageSize int) (*Page, error) {
	trimmed := firstNonSpace(body)

	if trimmed == '{' {
		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Details != "" {
			return nil, &apiErr
		}
		return nil, &DecodeError{Err: fmt.Errorf("expected a card array, got an object")}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Err: err}
	}

	result := &Page{
		Cards:    make([]cards.Card, 0, len(raw)),
		Page:     page,
		PageSize: pageSize,
	}
	for _, item := range raw {
		card, err := cards.Decode(item)
		if err != nil {
			return nil, &DecodeError{Err: err}
		}
		result.Cards = append(result.Cards, card)
	}
	return result, nil
}

func firstNonSpace(body []byte) byte {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b
		}
	}
	return 0
}
