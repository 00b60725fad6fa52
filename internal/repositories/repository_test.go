package repositories

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "not found", err: NotFound("master exercise %s not found", "m1"), code: http.StatusNotFound},
		{name: "unauthenticated", err: Unauthenticated("authentication required"), code: http.StatusUnauthorized},
		{name: "storage unavailable", err: StorageUnavailable("failed to list"), code: http.StatusServiceUnavailable},
		{name: "bad request", err: BadRequest("invalid cursor"), code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, httperror.IsHTTPError(tt.err))
			assert.Equal(t, tt.code, httperror.GetStatusCode(tt.err))
		})
	}

	assert.Contains(t, NotFound("master exercise %s not found", "m1").Error(), "m1")
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("gone")))
	assert.False(t, IsNotFound(StorageUnavailable("down")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))

	assert.True(t, IsStorageUnavailable(StorageUnavailable("down")))
	assert.False(t, IsStorageUnavailable(NotFound("gone")))
}

func TestRequireOwner(t *testing.T) {
	assert.NoError(t, RequireOwner("owner-1"))

	err := RequireOwner("")
	assert.Equal(t, http.StatusUnauthorized, httperror.GetStatusCode(err))
}

func TestValidID(t *testing.T) {
	assert.True(t, validID(uuid.New().String()))
	assert.False(t, validID("missing"))
	assert.False(t, validID(""))
}
