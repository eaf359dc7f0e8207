package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "fallback", UserMessage(nil, "fallback"))
	assert.Equal(t, "ticket already finished", UserMessage(NewBackendRejection(http.StatusBadRequest, "ticket already finished"), "fallback"))
	assert.Equal(t, "plain", UserMessage(errors.New("plain"), "fallback"))
	assert.Equal(t, "fallback", UserMessage(NewBackendRejection(http.StatusBadRequest, ""), "fallback"))
}

func TestFetchAndTransitionKeepAuthErrors(t *testing.T) {
	authErr := NewUnauthorized("session expired")

	assert.True(t, IsAuth(NewFetchError("tickets", authErr)))
	assert.True(t, IsAuth(NewTransitionError("rejected", authErr)))

	fetchErr := NewFetchError("tickets", NewTransportError(errors.New("dial tcp")))
	assert.True(t, IsCode(fetchErr, CodeFetchFailed))
	assert.True(t, IsTransport(errors.Unwrap(fetchErr)))
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", NewFieldError("total_value", "invalid"))
	de := ToDomainError(wrapped)
	assert.Equal(t, CodeValidation, de.Code)
	assert.Equal(t, "total_value", de.Details["field"])

	de = ToDomainError(errors.New("boom"))
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Nil(t, ToDomainError(nil))
}
