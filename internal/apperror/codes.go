package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
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

// AMM math error codes
const (
	CodeInvalidInput          Code = "INVALID_INPUT"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeArithmeticOverflow    Code = "ARITHMETIC_OVERFLOW"
	CodeInvalidPath           Code = "INVALID_PATH"
)

// Pool locator error codes
const (
	CodeIdenticalTokens Code = "IDENTICAL_TOKENS"
	CodeZeroToken       Code = "ZERO_TOKEN"
	CodePoolNotFound    Code = "POOL_NOT_FOUND"
	CodePoolExists      Code = "POOL_EXISTS"
)

// Flash-swap orchestration error codes
const (
	CodeInvalidTokenPair      Code = "INVALID_TOKEN_PAIR"
	CodeInvalidAmount         Code = "INVALID_AMOUNT"
	CodeNoAmountBorrowed      Code = "NO_AMOUNT_BORROWED"
	CodeAmbiguousBorrow       Code = "AMBIGUOUS_BORROW"
	CodeUnprofitable          Code = "UNPROFITABLE"
	CodeUnauthorizedCaller    Code = "UNAUTHORIZED_CALLER"
	CodeUnauthorizedCallback  Code = "UNAUTHORIZED_CALLBACK"
	CodeInvalidCallbackData   Code = "INVALID_CALLBACK_DATA"
	CodeRunInProgress         Code = "RUN_IN_PROGRESS"
	CodeInsufficientRepayment Code = "INSUFFICIENT_REPAYMENT"
)

// Exchange / ledger error codes
const (
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeInvariantViolated   Code = "INVARIANT_VIOLATED"
	CodeUnknownAccount      Code = "UNKNOWN_ACCOUNT"
)

// Remote resolver error codes
const (
	CodeEthereumRPCError   Code = "ETHEREUM_RPC_ERROR"
	CodeContractCallFailed Code = "CONTRACT_CALL_FAILED"
	CodeCircuitOpen        Code = "CIRCUIT_OPEN"
)
