package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusUnauthorized, KindUnauthorized},
		{http.StatusForbidden, KindUnauthorized},
		{http.StatusNotFound, KindNotFound},
		{http.StatusBadRequest, KindValidation},
		{http.StatusConflict, KindValidation},
		{http.StatusUnprocessableEntity, KindValidation},
		{http.StatusInternalServerError, KindServerError},
		{http.StatusBadGateway, KindServerError},
		{http.StatusTeapot, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, KindForStatus(tt.status))
		})
	}
}

func TestAccessError_WrappedKind(t *testing.T) {
	base := NewTransportError("articles.list", errors.New("dial tcp: connection refused"))
	wrapped := fmt.Errorf("refresh: %w", base)

	assert.Equal(t, KindNetworkUnavailable, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindNetworkUnavailable))
	assert.False(t, IsKind(wrapped, KindNotFound))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.ErrorContains(t, base, "connection refused")
}

func TestNewStatusError_DefaultMessage(t *testing.T) {
	err := NewStatusError("team.delete", http.StatusNotFound, "")
	assert.Equal(t, "Not Found", err.Message)
	assert.Equal(t, "team.delete: NOT_FOUND (status 404): Not Found", err.Error())
}

func TestResultFromError(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r := ResultFromError(nil, "Subscribed")
		assert.True(t, r.Success)
		assert.Equal(t, http.StatusOK, r.StatusCode)
		assert.Equal(t, "Subscribed", r.Message)
	})

	t.Run("access error keeps server message and status", func(t *testing.T) {
		r := ResultFromError(NewStatusError("newsletter.save", http.StatusConflict, "Email already subscribed"), "")
		assert.False(t, r.Success)
		assert.Equal(t, http.StatusConflict, r.StatusCode)
		assert.Equal(t, "Email already subscribed", r.Message)
	})

	t.Run("plain error", func(t *testing.T) {
		r := ResultFromError(errors.New("boom"), "")
		assert.False(t, r.Success)
		assert.Zero(t, r.StatusCode)
	})
}
