package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeUpstream, "pin file")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "pin file: connection reset", err.Error())
	assert.Equal(t, CodeUpstream, CodeOf(err))
}

func TestHasCodeWalksNestedErrors(t *testing.T) {
	inner := New(CodeConflict, "stale attempt")
	outer := Wrap(fmt.Errorf("apply: %w", inner), CodeInternal, "verify")

	assert.True(t, HasCode(outer, CodeConflict))
	assert.True(t, HasCode(outer, CodeInternal))
	assert.False(t, HasCode(outer, CodeNotFound))
	assert.True(t, Is(outer, CodeInternal))
	assert.False(t, Is(outer, CodeConflict))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.False(t, HasCode(errors.New("boom"), CodeInternal))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:       http.StatusBadRequest,
		CodeValidation:       http.StatusBadRequest,
		CodeUnsupportedMedia: http.StatusUnsupportedMediaType,
		CodeNotFound:         http.StatusNotFound,
		CodeConflict:         http.StatusConflict,
		CodePrecondition:     http.StatusPreconditionFailed,
		CodeRateLimited:      http.StatusTooManyRequests,
		CodeUpstream:         http.StatusBadGateway,
		CodeTimeout:          http.StatusGatewayTimeout,
		CodeInternal:         http.StatusInternalServerError,
		Code("unknown"):      http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), "code %s", code)
	}
}
