// Package etherscan fetches verified contract ABIs from the Etherscan API.
package etherscan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/cache"
	"github.com/fd1az/defi-router/internal/httpclient"
	"github.com/fd1az/defi-router/internal/logger"
	"github.com/fd1az/defi-router/internal/ratelimit"
)

const (
	tracerName = "etherscan"

	defaultRequestTimeout = 10 * time.Second
	cacheCleanupInterval  = 10 * time.Minute
)

// Config holds Etherscan client configuration.
type Config struct {
	APIURL            string
	APIKey            string
	RequestsPerSecond float64
	CacheTTL          time.Duration
}

// DefaultConfig returns defaults suitable for the free API tier.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIURL:            "https://api.etherscan.io/api",
		APIKey:            apiKey,
		RequestsPerSecond: 4,
		CacheTTL:          time.Hour,
	}
}

// apiResponse is the Etherscan envelope. Result holds the ABI JSON as a
// string, or an explanation when status is "0".
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Client fetches contract ABIs with rate limiting and caching.
type Client struct {
	config  Config
	http    httpclient.Client
	limiter *ratelimit.Limiter
	abis    *cache.Cache[common.Address, abi.ABI]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// New creates a new Etherscan client.
func New(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 4
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}

	httpClient, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("etherscan"),
		httpclient.WithRequestTimeout(defaultRequestTimeout),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:  cfg,
		http:    httpClient,
		limiter: ratelimit.NewWithBurst(cfg.RequestsPerSecond, 1),
		abis:    cache.New[common.Address, abi.ABI](cacheCleanupInterval),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// ContractABI returns the parsed ABI of a verified contract, fetching it
// from the API on cache miss.
func (c *Client) ContractABI(ctx context.Context, address common.Address) (abi.ABI, error) {
	ctx, span := c.tracer.Start(ctx, "etherscan.contract_abi",
		trace.WithAttributes(attribute.String("contract.address", address.Hex())),
	)
	defer span.End()

	if cached, ok := c.abis.Get(ctx, address); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return abi.ABI{}, apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithCause(err),
			apperror.WithContext("waiting for etherscan rate limit"))
	}

	var result apiResponse
	resp, err := c.http.NewRequest().
		SetQueryParams(map[string]string{
			"module":  "contract",
			"action":  "getabi",
			"address": address.Hex(),
			"apikey":  c.config.APIKey,
		}).
		SetResult(&result).
		Get(ctx, c.config.APIURL)
	if err != nil {
		return abi.ABI{}, apperror.New(apperror.CodeExternalServiceError,
			apperror.WithCause(err),
			apperror.WithContext("etherscan request failed"))
	}
	if resp.IsError() {
		return abi.ABI{}, apperror.New(apperror.CodeExternalServiceError,
			apperror.WithContext(fmt.Sprintf("etherscan returned status %d", resp.StatusCode)))
	}

	// Etherscan reports missing/unverified contracts with status "0".
	if result.Status != "1" {
		return abi.ABI{}, apperror.New(apperror.CodeABINotFound,
			apperror.WithContext(fmt.Sprintf("contract %s: %s", address.Hex(), result.Result)))
	}

	parsed, err := abi.JSON(strings.NewReader(result.Result))
	if err != nil {
		return abi.ABI{}, apperror.New(apperror.CodeABIMalformed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("parsing ABI for %s", address.Hex())))
	}

	c.abis.Set(ctx, address, parsed, c.config.CacheTTL)

	c.logger.Debug(ctx, "fetched contract ABI",
		"address", address.Hex(),
		"methods", len(parsed.Methods))

	return parsed, nil
}

// Close releases the ABI cache.
func (c *Client) Close() {
	c.abis.Close()
}
