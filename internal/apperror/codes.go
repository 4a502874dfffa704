package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Routing-specific error codes
const (
	// Protocol registry / resolution
	CodeNoProtocolsConfigured Code = "NO_PROTOCOLS_CONFIGURED"
	CodeUnsupportedProtocol   Code = "UNSUPPORTED_PROTOCOL"

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeBlockNotFound            Code = "BLOCK_NOT_FOUND"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
	CodeTransactionBuildFailed   Code = "TRANSACTION_BUILD_FAILED"
	CodeSigningFailed            Code = "SIGNING_FAILED"

	// ABI sourcing errors
	CodeABINotFound  Code = "ABI_NOT_FOUND"
	CodeABIMalformed Code = "ABI_MALFORMED"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// DEX routing errors
	CodeQuoteFailed           Code = "QUOTE_FAILED"
	CodePoolNotFound          Code = "POOL_NOT_FOUND"
	CodeNoRouteFound          Code = "NO_ROUTE_FOUND"
	CodeNoReservesFound       Code = "NO_RESERVES_FOUND"
	CodeInvalidQuote          Code = "INVALID_QUOTE"
	CodeInvalidRoute          Code = "INVALID_ROUTE"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"

	// Money market errors
	CodeMarketDataFailed    Code = "MARKET_DATA_FAILED"
	CodeAccountDataFailed   Code = "ACCOUNT_DATA_FAILED"
	CodePositionFetchFailed Code = "POSITION_FETCH_FAILED"

	// Betting market errors
	CodeCLOBAPIError     Code = "CLOB_API_ERROR"
	CodeMarketNotFound   Code = "MARKET_NOT_FOUND"
	CodePriceFetchFailed Code = "PRICE_FETCH_FAILED"

	// Cache errors
	CodeCacheMiss    Code = "CACHE_MISS"
	CodeCacheExpired Code = "CACHE_EXPIRED"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
