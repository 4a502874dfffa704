package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Protocol registry / resolution
	CodeNoProtocolsConfigured: "No protocols configured",
	CodeUnsupportedProtocol:   "Unsupported protocol",

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeBlockNotFound:            "Block not found",
	CodeContractCallFailed:       "Smart contract call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",
	CodeTransactionBuildFailed:   "Failed to build transaction",
	CodeSigningFailed:            "Failed to sign transaction",

	// ABI sourcing errors
	CodeABINotFound:  "Contract ABI not found",
	CodeABIMalformed: "Contract ABI is malformed",

	// WebSocket errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	// DEX routing errors
	CodeQuoteFailed:           "Failed to get swap quote",
	CodePoolNotFound:          "Liquidity pool not found",
	CodeNoRouteFound:          "No valid route found",
	CodeNoReservesFound:       "No reserves found for pair",
	CodeInvalidQuote:          "Invalid quote data",
	CodeInvalidRoute:          "Invalid swap route",
	CodeInsufficientLiquidity: "Insufficient liquidity for trade size",

	// Money market errors
	CodeMarketDataFailed:    "Failed to fetch market data",
	CodeAccountDataFailed:   "Failed to fetch user account data",
	CodePositionFetchFailed: "Failed to fetch positions",

	// Betting market errors
	CodeCLOBAPIError:     "Prediction market API error",
	CodeMarketNotFound:   "Betting market not found",
	CodePriceFetchFailed: "Failed to fetch outcome token price",

	// Cache errors
	CodeCacheMiss:    "Cache miss",
	CodeCacheExpired: "Cache entry expired",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
