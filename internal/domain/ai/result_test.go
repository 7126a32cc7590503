package ai

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	ok := Success("Fehler are discussed here")
	assert.False(t, ok.Failed(), "text mentioning errors is still a success")
	assert.Equal(t, "Fehler are discussed here", ok.Text)

	bad := Failure(errors.New("boom"))
	assert.True(t, bad.Failed())
	assert.Empty(t, bad.Text)
}

func TestGatewayError(t *testing.T) {
	quota := &GatewayError{StatusCode: http.StatusTooManyRequests, Err: errors.New("slow down")}
	assert.ErrorIs(t, quota, ErrQuotaExceeded)
	assert.Equal(t, "model call failed (status 429): slow down", quota.Error())

	transport := &GatewayError{Err: errors.New("connection refused")}
	assert.NotErrorIs(t, transport, ErrQuotaExceeded)
	assert.Equal(t, "model call failed: connection refused", transport.Error())

	empty := &GatewayError{Err: ErrNoChoices}
	assert.ErrorIs(t, empty, ErrNoChoices)
}
