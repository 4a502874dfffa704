package polymarket

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"

	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/logger"
	"github.com/fd1az/defi-router/internal/ratelimit"
)

const (
	defaultRequestTimeout = 15 * time.Second
	defaultRetryCount     = 3
	defaultRetryWait      = 500 * time.Millisecond
	defaultRetryMaxWait   = 10 * time.Second

	// Free-tier CLOB limits allow short bursts.
	defaultRequestsPerSecond = 10
	defaultBurst             = 20
)

// Client is a rate-limited REST client for the Polymarket CLOB API.
type Client struct {
	http    *resty.Client
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
}

// NewClient creates a CLOB client against the given base URL. Retries
// honor 429 Retry-After when the server sends one, otherwise back off
// exponentially.
func NewClient(apiURL string, log logger.LoggerInterface) *Client {
	httpClient := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(defaultRequestTimeout).
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWait).
		SetRetryMaxWaitTime(defaultRetryMaxWait).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests ||
				r.StatusCode() >= http.StatusInternalServerError
		}).
		SetRetryAfter(func(c *resty.Client, r *resty.Response) (time.Duration, error) {
			if r != nil && r.StatusCode() == http.StatusTooManyRequests {
				if secs, err := strconv.Atoi(r.Header().Get("Retry-After")); err == nil && secs > 0 {
					return time.Duration(secs) * time.Second, nil
				}
			}
			return 0, nil
		})

	return &Client{
		http:    httpClient,
		limiter: ratelimit.NewWithBurst(defaultRequestsPerSecond, defaultBurst),
		logger:  log,
	}
}

// Market fetches a single market by its condition id.
func (c *Client) Market(ctx context.Context, marketID string) (*marketResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithCause(err),
			apperror.WithContext("waiting for clob rate limit"))
	}

	var result marketResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("id", marketID).
		Get("/markets/{id}")
	if err != nil {
		return nil, apperror.New(apperror.CodeCLOBAPIError,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("fetching market %s", marketID)))
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperror.NotFound(apperror.CodeMarketNotFound,
			fmt.Sprintf("market %s", marketID))
	}
	if resp.IsError() {
		return nil, c.apiError(resp, fmt.Sprintf("fetching market %s", marketID))
	}

	return &result, nil
}

// Markets fetches a page of markets. All filter parameters are optional.
func (c *Client) Markets(ctx context.Context, category string, activeOnly bool, limit, offset int) ([]marketResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithCause(err),
			apperror.WithContext("waiting for clob rate limit"))
	}

	req := c.http.R().SetContext(ctx)
	if category != "" {
		req.SetQueryParam("category", category)
	}
	if activeOnly {
		req.SetQueryParam("active", "true")
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		req.SetQueryParam("offset", strconv.Itoa(offset))
	}

	var result marketsResponse
	resp, err := req.SetResult(&result).Get("/markets")
	if err != nil {
		return nil, apperror.New(apperror.CodeCLOBAPIError,
			apperror.WithCause(err),
			apperror.WithContext("fetching markets"))
	}
	if resp.IsError() {
		return nil, c.apiError(resp, "fetching markets")
	}

	return result.Data, nil
}

// Positions fetches a user's outcome-token holdings. marketID narrows
// the result to a single market when non-empty.
func (c *Client) Positions(ctx context.Context, user common.Address, marketID string) ([]positionResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithCause(err),
			apperror.WithContext("waiting for clob rate limit"))
	}

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("user", user.Hex())
	if marketID != "" {
		req.SetQueryParam("market", marketID)
	}

	var result positionsResponse
	resp, err := req.SetResult(&result).Get("/positions")
	if err != nil {
		return nil, apperror.New(apperror.CodeCLOBAPIError,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("fetching positions for %s", user.Hex())))
	}
	if resp.IsError() {
		return nil, c.apiError(resp, fmt.Sprintf("fetching positions for %s", user.Hex()))
	}

	return result.Data, nil
}

// Price fetches the current midpoint price for a CLOB token id.
func (c *Client) Price(ctx context.Context, tokenID string) (*priceResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithCause(err),
			apperror.WithContext("waiting for clob rate limit"))
	}

	var result priceResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetQueryParam("token_id", tokenID).
		Get("/prices")
	if err != nil {
		return nil, apperror.New(apperror.CodeCLOBAPIError,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("fetching price for token %s", tokenID)))
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, apperror.NotFound(apperror.CodeMarketNotFound,
			fmt.Sprintf("token %s", tokenID))
	}
	if resp.IsError() {
		return nil, c.apiError(resp, fmt.Sprintf("fetching price for token %s", tokenID))
	}

	return &result, nil
}

func (c *Client) apiError(resp *resty.Response, op string) error {
	c.logger.Debug(resp.Request.Context(), "clob api error",
		"status", resp.StatusCode(),
		"body", resp.String())
	return apperror.New(apperror.CodeCLOBAPIError,
		apperror.WithContext(fmt.Sprintf("%s: clob returned status %d", op, resp.StatusCode())))
}
