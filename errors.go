package dataapi

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("dataapi: configuration error")
	// ErrExecution matches every *ExecutionError.
	ErrExecution = errors.New("dataapi: execution error")
	// ErrTxDone is returned when a committed or rolled back Tx is used again.
	ErrTxDone = errors.New("dataapi: transaction has already been committed or rolled back")
)

// ConfigurationError reports bad credentials, a malformed statement or
// bindings that don't fit the statement. It is always raised before any
// request reaches the remote service.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("dataapi: invalid %s: %s", e.Field, e.Message)
	}
	return "dataapi: " + e.Message
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErrorf(field, format string, args ...interface{}) error {
	return &ConfigurationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// ExecutionError wraps a failure returned by the remote service, or by the
// transport on the way to it. Code holds the service's error code when the
// service produced one, eg. "BadRequestException".
type ExecutionError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("dataapi: %s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("dataapi: %s: %s", e.Op, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}

func newExecutionError(op string, err error) *ExecutionError {
	ee := &ExecutionError{
		Op:      op,
		Message: err.Error(),
		Err:     err,
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		ee.Code = apiErr.ErrorCode()
		ee.Message = apiErr.ErrorMessage()
	}
	return ee
}
