package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKindMatchesSentinelAndCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := WrapKind(cause, ErrDownload, "fetching photo bytes")

	assert.True(t, IsDownload(err))
	assert.True(t, Is(err, cause))
	assert.False(t, IsUpload(err))
	assert.Equal(t, "fetching photo bytes: connection reset", err.Error())
}

func TestWrapKindNilPassesThrough(t *testing.T) {
	assert.NoError(t, WrapKind(nil, ErrUpload, "nothing happened"))
	assert.NoError(t, Wrap(nil, "nothing happened"))
}

func TestKindWithoutCause(t *testing.T) {
	err := Kind(ErrPublish, "wall.post refused")

	assert.True(t, IsPublish(err))
	assert.Equal(t, "wall.post refused", err.Error())
}

func TestKindSurvivesFurtherWrapping(t *testing.T) {
	inner := Kind(ErrTransport, "service unreachable")
	outer := fmt.Errorf("during publish: %w", Wrap(inner, "retries exhausted"))

	assert.True(t, IsTransport(outer))
	assert.Equal(t, "retries exhausted", GetMessage(outer))
}

func TestGetMessage(t *testing.T) {
	assert.Equal(t, "", GetMessage(nil))
	assert.Equal(t, "plain", GetMessage(stderrors.New("plain")))
	assert.Equal(t, "typed", GetMessage(New("typed")))
}

func TestAsExtractsTypedError(t *testing.T) {
	err := fmt.Errorf("outer: %w", Kind(ErrAuthentication, "code rejected"))

	var typed *Error
	require.True(t, As(err, &typed))
	assert.Equal(t, ErrAuthentication, typed.Kind)
	assert.Equal(t, "code rejected", typed.Message)
}
