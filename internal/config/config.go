// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Ethereum    EthereumConfig    `mapstructure:"ethereum"`
	Etherscan   EtherscanConfig   `mapstructure:"etherscan"`
	DEX         DEXConfig         `mapstructure:"dex"`
	MoneyMarket MoneyMarketConfig `mapstructure:"moneymarket"`
	Betting     BettingConfig     `mapstructure:"betting"`
	Monitor     MonitorConfig     `mapstructure:"monitor"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // "text" or "json"
	LogFile     string `mapstructure:"log_file"`   // empty = stderr only
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	HTTPURL        string        `mapstructure:"http_url"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	PrivateKey     string        `mapstructure:"private_key"` // optional, enables transaction signing
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// EtherscanConfig holds the Etherscan ABI source configuration.
type EtherscanConfig struct {
	APIURL            string        `mapstructure:"api_url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// DEXConfig holds swap routing configuration.
type DEXConfig struct {
	DefaultSlippage float64         `mapstructure:"default_slippage"`
	DeadlineMinutes int             `mapstructure:"deadline_minutes"`
	UniswapV2       UniswapV2Config `mapstructure:"uniswap_v2"`
	UniswapV3       UniswapV3Config `mapstructure:"uniswap_v3"`
}

// DefaultSlippageDecimal returns the default slippage as decimal.Decimal.
func (c *DEXConfig) DefaultSlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultSlippage)
}

// Deadline returns the transaction deadline window.
func (c *DEXConfig) Deadline() time.Duration {
	return time.Duration(c.DeadlineMinutes) * time.Minute
}

// UniswapV2Config holds Uniswap V2 contract addresses.
type UniswapV2Config struct {
	Enabled        bool   `mapstructure:"enabled"`
	FactoryAddress string `mapstructure:"factory_address"`
	RouterAddress  string `mapstructure:"router_address"`
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *UniswapV2Config) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// RouterAddressHex returns the router address as common.Address.
func (c *UniswapV2Config) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// UniswapV3Config holds Uniswap V3 contract addresses.
type UniswapV3Config struct {
	Enabled        bool   `mapstructure:"enabled"`
	QuoterAddress  string `mapstructure:"quoter_address"`
	RouterAddress  string `mapstructure:"router_address"`
	FactoryAddress string `mapstructure:"factory_address"`
	FeeTiers       []int  `mapstructure:"fee_tiers"`
}

// QuoterAddressHex returns the quoter address as common.Address.
func (c *UniswapV3Config) QuoterAddressHex() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

// RouterAddressHex returns the router address as common.Address.
func (c *UniswapV3Config) RouterAddressHex() common.Address {
	return common.HexToAddress(c.RouterAddress)
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *UniswapV3Config) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// MoneyMarketConfig holds lending protocol configuration.
type MoneyMarketConfig struct {
	DefaultInterestRateMode string       `mapstructure:"default_interest_rate_mode"` // "variable" or "stable"
	AaveV3                  AaveV3Config `mapstructure:"aave_v3"`
}

// AaveV3Config holds Aave V3 contract addresses.
type AaveV3Config struct {
	Enabled             bool   `mapstructure:"enabled"`
	PoolAddress         string `mapstructure:"pool_address"`
	DataProviderAddress string `mapstructure:"data_provider_address"`
}

// PoolAddressHex returns the pool address as common.Address.
func (c *AaveV3Config) PoolAddressHex() common.Address {
	return common.HexToAddress(c.PoolAddress)
}

// DataProviderAddressHex returns the data provider address as common.Address.
func (c *AaveV3Config) DataProviderAddressHex() common.Address {
	return common.HexToAddress(c.DataProviderAddress)
}

// BettingConfig holds prediction market configuration.
type BettingConfig struct {
	SlippageTolerance float64          `mapstructure:"slippage_tolerance"`
	FeeRate           float64          `mapstructure:"fee_rate"`
	Polymarket        PolymarketConfig `mapstructure:"polymarket"`
}

// SlippageToleranceDecimal returns the price tolerance as decimal.Decimal.
func (c *BettingConfig) SlippageToleranceDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.SlippageTolerance)
}

// FeeRateDecimal returns the fee rate as decimal.Decimal.
func (c *BettingConfig) FeeRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FeeRate)
}

// PolymarketConfig holds Polymarket API and contract configuration.
type PolymarketConfig struct {
	Enabled                  bool   `mapstructure:"enabled"`
	APIURL                   string `mapstructure:"api_url"`
	WebSocketURL             string `mapstructure:"websocket_url"`
	ExchangeAddress          string `mapstructure:"exchange_address"`
	NegRiskExchangeAddress   string `mapstructure:"neg_risk_exchange_address"`
	ConditionalTokensAddress string `mapstructure:"conditional_tokens_address"`
	CollateralAddress        string `mapstructure:"collateral_address"`
}

// ExchangeAddressHex returns the CTF exchange address as common.Address.
func (c *PolymarketConfig) ExchangeAddressHex() common.Address {
	return common.HexToAddress(c.ExchangeAddress)
}

// NegRiskExchangeAddressHex returns the neg-risk exchange address as common.Address.
func (c *PolymarketConfig) NegRiskExchangeAddressHex() common.Address {
	return common.HexToAddress(c.NegRiskExchangeAddress)
}

// ConditionalTokensAddressHex returns the conditional tokens address as common.Address.
func (c *PolymarketConfig) ConditionalTokensAddressHex() common.Address {
	return common.HexToAddress(c.ConditionalTokensAddress)
}

// CollateralAddressHex returns the collateral token address as common.Address.
func (c *PolymarketConfig) CollateralAddressHex() common.Address {
	return common.HexToAddress(c.CollateralAddress)
}

// MonitorConfig holds quote monitoring configuration.
type MonitorConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Pair     string        `mapstructure:"pair"`
	Amount   float64       `mapstructure:"amount"`
	Interval time.Duration `mapstructure:"interval"`
	TUIMode  bool          `mapstructure:"-"` // Set at runtime, not from config file
}

// AmountDecimal returns the monitored trade size as decimal.Decimal.
func (c *MonitorConfig) AmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Amount)
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ROUTER")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ROUTER_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ROUTER_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ROUTER_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.log_format", "ROUTER_LOG_FORMAT", "LOG_FORMAT")
	v.BindEnv("app.log_file", "ROUTER_LOG_FILE", "LOG_FILE")

	// Ethereum
	v.BindEnv("ethereum.http_url", "ROUTER_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.websocket_url", "ROUTER_ETH_WS_URL", "ETH_WS_URL")
	v.BindEnv("ethereum.chain_id", "ROUTER_ETH_CHAIN_ID", "ETH_CHAIN_ID")
	v.BindEnv("ethereum.private_key", "ROUTER_ETH_PRIVATE_KEY", "ETH_PRIVATE_KEY")

	// Etherscan
	v.BindEnv("etherscan.api_url", "ROUTER_ETHERSCAN_API_URL", "ETHERSCAN_API_URL")
	v.BindEnv("etherscan.api_key", "ROUTER_ETHERSCAN_API_KEY", "ETHERSCAN_API_KEY")

	// DEX
	v.BindEnv("dex.default_slippage", "ROUTER_DEX_DEFAULT_SLIPPAGE")
	v.BindEnv("dex.uniswap_v2.factory_address", "ROUTER_UNISWAP_V2_FACTORY")
	v.BindEnv("dex.uniswap_v2.router_address", "ROUTER_UNISWAP_V2_ROUTER")
	v.BindEnv("dex.uniswap_v3.quoter_address", "ROUTER_UNISWAP_V3_QUOTER")
	v.BindEnv("dex.uniswap_v3.router_address", "ROUTER_UNISWAP_V3_ROUTER")
	v.BindEnv("dex.uniswap_v3.factory_address", "ROUTER_UNISWAP_V3_FACTORY")

	// Money market
	v.BindEnv("moneymarket.aave_v3.pool_address", "ROUTER_AAVE_POOL")
	v.BindEnv("moneymarket.aave_v3.data_provider_address", "ROUTER_AAVE_DATA_PROVIDER")

	// Betting
	v.BindEnv("betting.polymarket.api_url", "ROUTER_POLYMARKET_API_URL")
	v.BindEnv("betting.polymarket.websocket_url", "ROUTER_POLYMARKET_WS_URL")

	// Monitor
	v.BindEnv("monitor.enabled", "ROUTER_MONITOR_ENABLED")
	v.BindEnv("monitor.pair", "ROUTER_MONITOR_PAIR")
	v.BindEnv("monitor.amount", "ROUTER_MONITOR_AMOUNT")
	v.BindEnv("monitor.interval", "ROUTER_MONITOR_INTERVAL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ROUTER_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ROUTER_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ROUTER_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "defi-router")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", 1)
	v.SetDefault("ethereum.max_reconnects", 0) // infinite
	v.SetDefault("ethereum.initial_backoff", "1s")
	v.SetDefault("ethereum.max_backoff", "30s")

	// Etherscan defaults
	v.SetDefault("etherscan.api_url", "https://api.etherscan.io/api")
	v.SetDefault("etherscan.requests_per_second", 4)
	v.SetDefault("etherscan.cache_ttl", "1h")

	// DEX defaults
	v.SetDefault("dex.default_slippage", 0.005) // 0.5%
	v.SetDefault("dex.deadline_minutes", 20)

	// Uniswap V2 Mainnet defaults
	v.SetDefault("dex.uniswap_v2.enabled", true)
	v.SetDefault("dex.uniswap_v2.factory_address", "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	v.SetDefault("dex.uniswap_v2.router_address", "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")

	// Uniswap V3 Mainnet defaults
	v.SetDefault("dex.uniswap_v3.enabled", true)
	v.SetDefault("dex.uniswap_v3.quoter_address", "0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	v.SetDefault("dex.uniswap_v3.router_address", "0xE592427A0AEce92De3Edee1F18E0157C05861564")
	v.SetDefault("dex.uniswap_v3.factory_address", "0x1F98431c8aD98523631AE4a59f267346ea31F984")
	v.SetDefault("dex.uniswap_v3.fee_tiers", []int{100, 500, 3000, 10000})

	// Money market defaults (Aave V3 Mainnet)
	v.SetDefault("moneymarket.default_interest_rate_mode", "variable")
	v.SetDefault("moneymarket.aave_v3.enabled", true)
	v.SetDefault("moneymarket.aave_v3.pool_address", "0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2")
	v.SetDefault("moneymarket.aave_v3.data_provider_address", "0x7B4EB56E7CD4b454BA8ff71E4518426369a138a3")

	// Betting defaults (Polymarket on Polygon)
	v.SetDefault("betting.slippage_tolerance", 0.01) // 1%
	v.SetDefault("betting.fee_rate", 0.02)           // 2%
	v.SetDefault("betting.polymarket.enabled", true)
	v.SetDefault("betting.polymarket.api_url", "https://clob.polymarket.com")
	v.SetDefault("betting.polymarket.websocket_url", "wss://ws-subscriptions-clob.polymarket.com/ws/market")
	v.SetDefault("betting.polymarket.exchange_address", "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E")
	v.SetDefault("betting.polymarket.neg_risk_exchange_address", "0xC5d563A36AE78145C45a50134d48A1215220f80a")
	v.SetDefault("betting.polymarket.conditional_tokens_address", "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045")
	v.SetDefault("betting.polymarket.collateral_address", "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")

	// Monitor defaults
	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.pair", "WETH-USDC")
	v.SetDefault("monitor.amount", 1.0)
	v.SetDefault("monitor.interval", "15s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "defi-router")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if c.DEX.DefaultSlippage < 0 || c.DEX.DefaultSlippage >= 1 {
		return fmt.Errorf("dex.default_slippage must be in [0, 1): %f", c.DEX.DefaultSlippage)
	}
	if c.DEX.DeadlineMinutes <= 0 {
		return fmt.Errorf("dex.deadline_minutes must be positive: %d", c.DEX.DeadlineMinutes)
	}
	if c.DEX.UniswapV2.Enabled {
		if !common.IsHexAddress(c.DEX.UniswapV2.FactoryAddress) {
			return fmt.Errorf("invalid dex.uniswap_v2.factory_address: %s", c.DEX.UniswapV2.FactoryAddress)
		}
		if !common.IsHexAddress(c.DEX.UniswapV2.RouterAddress) {
			return fmt.Errorf("invalid dex.uniswap_v2.router_address: %s", c.DEX.UniswapV2.RouterAddress)
		}
	}
	if c.DEX.UniswapV3.Enabled {
		if !common.IsHexAddress(c.DEX.UniswapV3.QuoterAddress) {
			return fmt.Errorf("invalid dex.uniswap_v3.quoter_address: %s", c.DEX.UniswapV3.QuoterAddress)
		}
		if !common.IsHexAddress(c.DEX.UniswapV3.RouterAddress) {
			return fmt.Errorf("invalid dex.uniswap_v3.router_address: %s", c.DEX.UniswapV3.RouterAddress)
		}
		if !common.IsHexAddress(c.DEX.UniswapV3.FactoryAddress) {
			return fmt.Errorf("invalid dex.uniswap_v3.factory_address: %s", c.DEX.UniswapV3.FactoryAddress)
		}
		if len(c.DEX.UniswapV3.FeeTiers) == 0 {
			return fmt.Errorf("dex.uniswap_v3.fee_tiers cannot be empty")
		}
		for _, tier := range c.DEX.UniswapV3.FeeTiers {
			if tier <= 0 || tier >= 1_000_000 {
				return fmt.Errorf("invalid dex.uniswap_v3 fee tier: %d", tier)
			}
		}
	}
	if mode := c.MoneyMarket.DefaultInterestRateMode; mode != "variable" && mode != "stable" {
		return fmt.Errorf("moneymarket.default_interest_rate_mode must be \"variable\" or \"stable\": %s", mode)
	}
	if c.MoneyMarket.AaveV3.Enabled {
		if !common.IsHexAddress(c.MoneyMarket.AaveV3.PoolAddress) {
			return fmt.Errorf("invalid moneymarket.aave_v3.pool_address: %s", c.MoneyMarket.AaveV3.PoolAddress)
		}
		if !common.IsHexAddress(c.MoneyMarket.AaveV3.DataProviderAddress) {
			return fmt.Errorf("invalid moneymarket.aave_v3.data_provider_address: %s", c.MoneyMarket.AaveV3.DataProviderAddress)
		}
	}
	if c.Betting.SlippageTolerance < 0 || c.Betting.SlippageTolerance >= 1 {
		return fmt.Errorf("betting.slippage_tolerance must be in [0, 1): %f", c.Betting.SlippageTolerance)
	}
	if c.Betting.FeeRate < 0 || c.Betting.FeeRate >= 1 {
		return fmt.Errorf("betting.fee_rate must be in [0, 1): %f", c.Betting.FeeRate)
	}
	if c.Betting.Polymarket.Enabled {
		if c.Betting.Polymarket.APIURL == "" {
			return fmt.Errorf("betting.polymarket.api_url is required")
		}
		for name, addr := range map[string]string{
			"betting.polymarket.exchange_address":           c.Betting.Polymarket.ExchangeAddress,
			"betting.polymarket.neg_risk_exchange_address":  c.Betting.Polymarket.NegRiskExchangeAddress,
			"betting.polymarket.conditional_tokens_address": c.Betting.Polymarket.ConditionalTokensAddress,
			"betting.polymarket.collateral_address":         c.Betting.Polymarket.CollateralAddress,
		} {
			if !common.IsHexAddress(addr) {
				return fmt.Errorf("invalid %s: %s", name, addr)
			}
		}
	}
	if c.Monitor.Enabled {
		if c.Monitor.Pair == "" {
			return fmt.Errorf("monitor.pair is required when monitor is enabled")
		}
		if c.Monitor.Amount <= 0 {
			return fmt.Errorf("monitor.amount must be positive: %f", c.Monitor.Amount)
		}
		if c.Monitor.Interval <= 0 {
			return fmt.Errorf("monitor.interval must be positive: %s", c.Monitor.Interval)
		}
	}
	return nil
}
