// Package auctionapi is the REST client for the external auction service
// that owns products, bids and watchers.
package auctionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/auctionview/internal/domain"
)

// Client talks to the auction API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new auction API client.
//
// baseURL is the service root, e.g. "http://localhost:3000". A zero timeout
// leaves requests unbounded apart from their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// GetProduct returns the listing with the given ID.
func (c *Client) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(id, 10))

	body, err := c.doGet(ctx, "/api/auction/product?"+params.Encode())
	if err != nil {
		return domain.Product{}, fmt.Errorf("auctionapi: get product %d: %w", id, err)
	}

	var p APIProduct
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.Product{}, fmt.Errorf("auctionapi: decode product: %w: %v", domain.ErrBadResponse, err)
	}

	product, err := p.ToDomainProduct()
	if err != nil {
		return domain.Product{}, fmt.Errorf("auctionapi: decode product: %w", err)
	}
	return product, nil
}

// GetBids returns the bid summary for a listing.
func (c *Client) GetBids(ctx context.Context, productID int64) (domain.BidSummary, error) {
	params := url.Values{}
	params.Set("productId", strconv.FormatInt(productID, 10))

	body, err := c.doGet(ctx, "/api/auction/bids?"+params.Encode())
	if err != nil {
		return domain.BidSummary{}, fmt.Errorf("auctionapi: get bids %d: %w", productID, err)
	}

	var pair APIBidSummary
	if err := json.Unmarshal(body, &pair); err != nil {
		return domain.BidSummary{}, fmt.Errorf("auctionapi: decode bids: %w: %v", domain.ErrBadResponse, err)
	}

	summary, err := pair.ToDomainBidSummary()
	if err != nil {
		return domain.BidSummary{}, fmt.Errorf("auctionapi: decode bids: %w", err)
	}
	return summary, nil
}

// PostBid submits a bid of amount on listing id.
func (c *Client) PostBid(ctx context.Context, id int64, amount domain.Money) error {
	req := bidRequest{ID: id, BidAmount: json.Number(amount.String())}
	if _, err := c.doPost(ctx, "/api/auction/bid", req); err != nil {
		return fmt.Errorf("auctionapi: post bid %d: %w", id, err)
	}
	return nil
}

// PostWatcher registers a watcher on listing id.
func (c *Client) PostWatcher(ctx context.Context, id int64) error {
	if _, err := c.doPost(ctx, "/api/auction/watcher", watcherRequest{ID: id}); err != nil {
		return fmt.Errorf("auctionapi: post watcher %d: %w", id, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// doPost sends body as JSON. Each POST carries a fresh X-Request-ID so the
// service can correlate duplicate submissions.
func (c *Client) doPost(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
