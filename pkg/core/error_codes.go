package core

import "errors"

// ErrorCode is a stable, machine-readable error identifier attached to
// ExchangeError when the server message alone is not enough.
type ErrorCode string

const (
	ErrCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeOrderNotFound     ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeInvalidSignature  ErrorCode = "INVALID_SIGNATURE"
	ErrCodeInvalidPassphrase ErrorCode = "INVALID_PASSPHRASE"
	ErrCodeInvalidAPIKey     ErrorCode = "INVALID_API_KEY"
	ErrCodePostOnly          ErrorCode = "POST_ONLY"
)

// IsErrorCode checks if the error carries the specified error code.
func IsErrorCode(err error, code ErrorCode) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return ErrorCode(exErr.Code) == code
	}
	return false
}
