// Package talent fetches sponsor leaderboards and token prices over HTTP.
package talent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/folajindayo/builder-score-app-sub000/internal/adapters/source"
	"github.com/folajindayo/builder-score-app-sub000/internal/domain/model"
)

// Config controls how the client reaches the upstream APIs.
type Config struct {
	BaseURL    string // leaderboard API
	PriceURL   string // token price API; defaults to BaseURL
	APIKey     string
	HTTPClient *http.Client
	PerPage    int
}

// Client implements source.Source against the leaderboard and price APIs.
type Client struct {
	baseURL    string
	priceURL   string
	apiKey     string
	perPage    int
	httpClient httpDoer
}

var _ source.Source = (*Client)(nil)

// NewClient constructs a client with the provided configuration.
func NewClient(cfg Config) *Client {
	base := normalizeBaseURL(cfg.BaseURL)
	price := base
	if cfg.PriceURL != "" {
		price = normalizeBaseURL(cfg.PriceURL)
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return &Client{
		baseURL:    base,
		priceURL:   price,
		apiKey:     cfg.APIKey,
		perPage:    perPage,
		httpClient: resolveHTTPClient(cfg.HTTPClient),
	}
}

// FetchPage retrieves one page of a sponsor leaderboard.
func (c *Client) FetchPage(ctx context.Context, req model.PageRequest) (model.Page, error) {
	perPage := req.PageSize
	if perPage <= 0 {
		perPage = c.perPage
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}

	q := url.Values{}
	q.Set("sponsor_slug", req.Sponsor)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	if req.TimeWindow != "" {
		q.Set("grant_id", req.TimeWindow)
	}

	var payload leaderboardResponse
	if err := c.getJSON(ctx, c.baseURL+leaderboardPath, q, &payload); err != nil {
		return model.Page{}, err
	}
	if payload.Pagination.CurrentPage == 0 {
		payload.Pagination.CurrentPage = page
	}
	return mapPage(req.Sponsor, &payload)
}

// FetchPrice retrieves the USD price of a sponsor's token. A missing or
// non-positive price yields source.ErrPriceUnavailable.
func (c *Client) FetchPrice(ctx context.Context, sponsor string) (model.TokenPrice, error) {
	q := url.Values{}
	q.Set("sponsor_slug", sponsor)

	var payload tokenPriceResponse
	if err := c.getJSON(ctx, c.priceURL+pricePath, q, &payload); err != nil {
		return model.TokenPrice{}, err
	}
	if !payload.USDPrice.Valid || !payload.USDPrice.Decimal.IsPositive() {
		return model.TokenPrice{}, fmt.Errorf("%s: %w", sponsor, source.ErrPriceUnavailable)
	}
	price, ok := finite(payload.USDPrice.Decimal.InexactFloat64())
	if !ok {
		return model.TokenPrice{}, fmt.Errorf("%s: usd_price: %w", sponsor, source.ErrMalformedResponse)
	}
	return model.TokenPrice{
		Sponsor:  sponsor,
		USDPrice: price,
		Symbol:   strings.ToUpper(strings.TrimSpace(payload.TokenSymbol)),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", endpoint, source.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &source.StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", endpoint, source.ErrMalformedResponse, err)
	}
	return nil
}
