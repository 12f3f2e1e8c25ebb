package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeMatchesWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("%w: Áo thun basic", ErrOutOfStock)

	assert.Equal(t, "OUT_OF_STOCK", Code(wrapped))
	assert.Equal(t, http.StatusConflict, StatusCode(wrapped))
	assert.True(t, IsClientError(wrapped))
}

func TestUnknownErrorIsInternal(t *testing.T) {
	err := errors.New("connexion refusée")

	assert.Equal(t, "INTERNAL_SERVER_ERROR", Code(err))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.False(t, IsClientError(err))
}

func TestSpecificErrorsWin(t *testing.T) {
	assert.Equal(t, "INVALID_CREDENTIALS", Code(ErrInvalidCredentials))
	assert.Equal(t, "EMAIL_ALREADY_USED", Code(ErrEmailAlreadyUsed))
	assert.True(t, IsClientError(ErrUnavailable))
}
