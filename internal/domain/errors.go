package domain

import "fmt"

// Stable machine-readable business failure codes. Infrastructure errors
// (storage unavailable, bad SQL) are ordinary wrapped errors, never an
// *Error, so callers can tell the two classes apart with errors.As.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeCreditLimitExceeded = "CREDIT_LIMIT_EXCEEDED"
	CodeShiftNotOpen        = "SHIFT_NOT_OPEN"
	CodeShiftAlreadyOpen    = "SHIFT_ALREADY_OPEN"
	CodeShiftAlreadyClosed  = "SHIFT_ALREADY_CLOSED"
	CodeInvalidType         = "INVALID_TYPE"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeAlreadyConverted    = "ALREADY_CONVERTED"
	CodeBalanceNotZero      = "BALANCE_NOT_ZERO"
	CodeLastAdmin           = "LAST_ADMIN"
	CodeBusinessRule        = "BUSINESS_RULE_VIOLATION"
	CodeDuplicate           = "DUPLICATE_ENTRY"
	CodeAuthFailed          = "AUTH_FAILED"
	CodeForbidden           = "FORBIDDEN"
)

// Error is a business-rule failure. Every failure aborts the enclosing
// atomic operation with no partial effect and is surfaced verbatim.
type Error struct {
	Code    string `json:"error_code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error carrying the same code, so
// errors.Is(err, domain.ErrNotFound) works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func E(code string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Canonical values for errors.Is checks.
var (
	ErrNotFound            = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation          = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInsufficientStock   = &Error{Code: CodeInsufficientStock, Message: "insufficient stock"}
	ErrCreditLimitExceeded = &Error{Code: CodeCreditLimitExceeded, Message: "credit limit exceeded"}
	ErrShiftNotOpen        = &Error{Code: CodeShiftNotOpen, Message: "shift is not open"}
	ErrShiftAlreadyOpen    = &Error{Code: CodeShiftAlreadyOpen, Message: "shift already open"}
	ErrShiftAlreadyClosed  = &Error{Code: CodeShiftAlreadyClosed, Message: "shift already closed"}
	ErrInvalidType         = &Error{Code: CodeInvalidType, Message: "invalid transaction type"}
	ErrInvalidStatus       = &Error{Code: CodeInvalidStatus, Message: "invalid transaction status"}
	ErrAlreadyConverted    = &Error{Code: CodeAlreadyConverted, Message: "quotation already converted"}
	ErrBalanceNotZero      = &Error{Code: CodeBalanceNotZero, Message: "balance is not zero"}
	ErrLastAdmin           = &Error{Code: CodeLastAdmin, Message: "cannot remove the last admin"}
	ErrDuplicate           = &Error{Code: CodeDuplicate, Message: "duplicate entry"}
	ErrAuthFailed          = &Error{Code: CodeAuthFailed, Message: "authentication failed"}
	ErrForbidden           = &Error{Code: CodeForbidden, Message: "forbidden"}
)
