package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineErrorFormat(t *testing.T) {
	err := NewError(DIRECTORY_READ_FAILED, "read failed")
	assert.Equal(t, "[DIRECTORY_READ_FAILED] read failed", err.Error())

	wrapped := WrapError(DB_QUERY_FAILED, "query failed", errors.New("disk gone"))
	assert.Equal(t, "[DB_QUERY_FAILED] query failed: disk gone", wrapped.Error())
}

func TestEngineErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := WrapRetryableError(DIRECTORY_UNAVAILABLE, "unreachable", cause)

	assert.True(t, err.Retryable)
	assert.ErrorIs(t, err, cause)
}

func TestIsCode(t *testing.T) {
	err := NewError(DIRECTORY_UNAVAILABLE, "unreachable")

	assert.True(t, IsCode(err, DIRECTORY_UNAVAILABLE))
	assert.False(t, IsCode(err, DIRECTORY_READ_FAILED))
	assert.False(t, IsCode(nil, DIRECTORY_UNAVAILABLE))
	assert.False(t, IsCode(errors.New("plain"), DIRECTORY_UNAVAILABLE))
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := NewRetryableError(DIRECTORY_UNAVAILABLE, "unreachable")
	outer := fmt.Errorf("resolving recipients: %w", inner)

	require.True(t, IsCode(outer, DIRECTORY_UNAVAILABLE))
}

func TestEngineErrorIsMatchesByCode(t *testing.T) {
	a := NewError(CYCLE_DETECTED, "one")
	b := NewError(CYCLE_DETECTED, "another")
	c := NewError(INVALID_FIELD_PATH, "other code")

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, c)
}
