package engine

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// CodeNotInitialized is returned when a query or stats call arrives before
	// the first successful refresh. There is no graph to traverse, so this is
	// fatal for the request rather than a degraded empty answer.
	CodeNotInitialized ErrorCode = "not_initialized"
	// CodeUnknownCategory is returned for a query category with no collection
	// mapping. Guessing a mapping would silently answer the wrong question.
	CodeUnknownCategory ErrorCode = "unknown_category"
)

type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "engine error"
	}
	if e.Message != "" {
		return fmt.Sprintf("engine error (code=%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("engine error (code=%s)", e.Code)
}

// IsCode reports whether err is an engine Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
