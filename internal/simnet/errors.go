package simnet

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes request errors.
type ErrorCode string

const (
	// ErrCodeContractNotFound indicates no deployed contract has the name.
	ErrCodeContractNotFound ErrorCode = "CONTRACT_NOT_FOUND"

	// ErrCodeFunctionNotFound indicates the contract declares no such function.
	ErrCodeFunctionNotFound ErrorCode = "FUNCTION_NOT_FOUND"

	// ErrCodeNotPublic indicates a call targeted a read-only function.
	ErrCodeNotPublic ErrorCode = "NOT_PUBLIC"

	// ErrCodeNotReadOnly indicates a query targeted a public function.
	ErrCodeNotReadOnly ErrorCode = "NOT_READ_ONLY"

	// ErrCodeBadArguments indicates an argument count, syntax or type mismatch.
	ErrCodeBadArguments ErrorCode = "BAD_ARGUMENTS"

	// ErrCodeContractExists indicates a deployment reused a contract name.
	ErrCodeContractExists ErrorCode = "CONTRACT_EXISTS"

	// ErrCodeUnknownImplementation indicates a manifest names an
	// implementation that is not registered.
	ErrCodeUnknownImplementation ErrorCode = "UNKNOWN_IMPLEMENTATION"

	// ErrCodeBadSignature indicates a malformed sender key or a signature
	// that does not recover.
	ErrCodeBadSignature ErrorCode = "BAD_SIGNATURE"
)

// Error is a request that the network refused before executing anything.
// Contract-level failures are not errors; they come back as a CallResult
// with Success=false.
type Error struct {
	Code     ErrorCode
	Message  string
	Contract string
	Function string
}

func (e *Error) Error() string {
	switch {
	case e.Contract != "" && e.Function != "":
		return fmt.Sprintf("%s: %s (contract=%s, function=%s)", e.Code, e.Message, e.Contract, e.Function)
	case e.Contract != "":
		return fmt.Sprintf("%s: %s (contract=%s)", e.Code, e.Message, e.Contract)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCodeOf returns the code of a wrapped *Error, or "" if err is not one.
func ErrorCodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err names an unknown contract or function.
func IsNotFound(err error) bool {
	code := ErrorCodeOf(err)
	return code == ErrCodeContractNotFound || code == ErrCodeFunctionNotFound
}

// IsBadArguments reports whether err is an argument mismatch.
func IsBadArguments(err error) bool {
	return ErrorCodeOf(err) == ErrCodeBadArguments
}

// RuntimeError aborts contract execution. The transaction is rolled back
// and its receipt carries the message.
type RuntimeError struct {
	Contract string
	Function string
	Message  string
}

func (e *RuntimeError) Error() string {
	return "runtime error: " + e.Message
}

// IsRuntimeError reports whether err is a *RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}

// Abort returns a RuntimeError for use by contract implementations.
func Abort(format string, args ...any) error {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// ErrReadOnly is the cause of writes attempted from a read-only function.
var ErrReadOnly = errors.New("write attempted in read-only context")
