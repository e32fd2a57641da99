package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
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
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// AMM math errors
	CodeInvalidInput:          "Invalid swap input",
	CodeInsufficientLiquidity: "Insufficient liquidity for requested output",
	CodeArithmeticOverflow:    "Arithmetic overflow in swap computation",
	CodeInvalidPath:           "Swap path must contain at least two tokens",

	// Pool locator errors
	CodeIdenticalTokens: "Token pair must contain two distinct tokens",
	CodeZeroToken:       "Token pair must not contain the zero token",
	CodePoolNotFound:    "Pool not found",
	CodePoolExists:      "Pool already exists for this pair",

	// Flash-swap orchestration errors
	CodeInvalidTokenPair:      "Invalid token pair for arbitrage",
	CodeInvalidAmount:         "Borrow amounts must be positive",
	CodeNoAmountBorrowed:      "Flash-swap callback carried no borrowed amount",
	CodeAmbiguousBorrow:       "Flash-swap callback carried amounts on both sides",
	CodeUnprofitable:          "Arbitrage would not cover repayment",
	CodeUnauthorizedCaller:    "Caller is not authorized to start an arbitrage",
	CodeUnauthorizedCallback:  "Callback caller is not the expected origin pool",
	CodeInvalidCallbackData:   "Malformed flash-swap callback data",
	CodeRunInProgress:         "An arbitrage run is already in flight",
	CodeInsufficientRepayment: "Pool repayment would violate its invariant",

	// Exchange / ledger errors
	CodeInsufficientBalance: "Insufficient token balance",
	CodeInvariantViolated:   "Constant-product invariant violated",
	CodeUnknownAccount:      "Account has no registered callback",

	// Remote resolver errors
	CodeEthereumRPCError:   "Ethereum RPC call failed",
	CodeContractCallFailed: "Smart contract call failed",
	CodeCircuitOpen:        "Circuit breaker is open",
}
