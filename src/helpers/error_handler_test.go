package helpers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, "none", ErrorKind(nil))
	assert.Equal(t, "configuration", ErrorKind(NewConfigurationError("missing key")))
	assert.Equal(t, "network", ErrorKind(NewNetworkError("get", cause)))
	assert.Equal(t, "data_source", ErrorKind(fmt.Errorf("wrapped: %w", NewDataSourceError("decode", cause))))
	assert.Equal(t, "database", ErrorKind(NewDatabaseError("insert", cause)))
	assert.Equal(t, "validation", ErrorKind(NewValidationError("bad body")))
	assert.Equal(t, "internal", ErrorKind(cause))
}

func TestIsConfigurationError(t *testing.T) {
	assert.True(t, IsConfigurationError(fmt.Errorf("outer: %w", NewConfigurationError("no key"))))
	assert.False(t, IsConfigurationError(NewNetworkError("x", nil)))
}

func TestErrorMessagesAndUnwrap(t *testing.T) {
	cause := errors.New("refused")
	err := NewNetworkError("fetch markets", cause)

	assert.Equal(t, "fetch markets: refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "no key", NewConfigurationError("no key").Error())
}

func TestErrorHandlerCounts(t *testing.T) {
	h := NewErrorHandler(nil)

	h.Handle(nil, "noop")
	assert.Zero(t, h.ErrorCount())

	h.Handle(errors.New("a"), "first")
	h.Handle(NewDatabaseError("b", nil), "second")
	assert.Equal(t, int64(2), h.ErrorCount())

	h.ResetErrorCount()
	assert.Zero(t, h.ErrorCount())
}
