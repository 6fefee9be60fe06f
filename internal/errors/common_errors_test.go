package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorError(t *testing.T) {
	plain := NewNoDataError("nothing in range")
	assert.Equal(t, "[NO_DATA] nothing in range", plain.Error())

	wrapped := NewFetchError("request failed", errors.New("connection refused"), true)
	assert.Equal(t, "[FETCH] request failed: connection refused", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := NewFetchError("outer", cause, false)

	assert.True(t, errors.Is(err, cause))

	var appErr *AppError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &appErr))
	assert.Equal(t, ErrTypeFetch, appErr.Type)
}

func TestWithContext(t *testing.T) {
	err := NewAuthError("bad credentials", nil).
		WithContext("guild_id", 123).
		WithContext("attempt", 2)

	assert.Equal(t, 123, err.Context["guild_id"])
	assert.Equal(t, 2, err.Context["attempt"])
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		typeOf    ErrorType
		auth      bool
		noData    bool
		malformed bool
		retryable bool
	}{
		{
			name:   "auth",
			err:    NewAuthError("denied", nil),
			typeOf: ErrTypeAuth,
			auth:   true,
		},
		{
			name:   "no data",
			err:    NewNoDataError("empty range"),
			typeOf: ErrTypeNoData,
			noData: true,
		},
		{
			name:      "malformed",
			err:       NewMalformedResponseError("bad shape", nil),
			typeOf:    ErrTypeMalformed,
			malformed: true,
		},
		{
			name:      "retryable fetch",
			err:       NewFetchError("rate limited", nil, true),
			typeOf:    ErrTypeFetch,
			retryable: true,
		},
		{
			name:   "non-retryable fetch",
			err:    NewFetchError("bad request", nil, false),
			typeOf: ErrTypeFetch,
		},
		{
			name:      "wrapped retryable survives the chain",
			err:       fmt.Errorf("stage failed: %w", NewFetchError("timeout", nil, true)),
			typeOf:    ErrTypeFetch,
			retryable: true,
		},
		{
			name:   "plain error has no type",
			err:    errors.New("plain"),
			typeOf: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typeOf, TypeOf(tt.err))
			assert.Equal(t, tt.auth, IsAuth(tt.err))
			assert.Equal(t, tt.noData, IsNoData(tt.err))
			assert.Equal(t, tt.malformed, IsMalformed(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}
