package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetOwnerID(ctx))

	ctx = SetOwnerID(ctx, "user-1")
	assert.Equal(t, "user-1", GetOwnerID(ctx))
}

func TestRequestValues(t *testing.T) {
	ctx := SetRequestID(context.Background(), "req-1")
	ctx = SetMethod(ctx, "GET")
	ctx = SetRoute(ctx, "/api/v1/masters")
	ctx = SetRemoteIP(ctx, "10.0.0.1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "GET", GetMethod(ctx))
	assert.Equal(t, "/api/v1/masters", GetRoute(ctx))
	assert.Equal(t, "10.0.0.1", GetRemoteIP(ctx))
}
