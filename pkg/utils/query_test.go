package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryContext(target string) echo.Context {
	return echo.New().NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
}

func TestQueryInt(t *testing.T) {
	value, err := QueryInt(queryContext("/?page_size=5"), "page_size", 20)
	require.NoError(t, err)
	assert.Equal(t, 5, value)

	value, err = QueryInt(queryContext("/"), "page_size", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, value)

	_, err = QueryInt(queryContext("/?page_size=ten"), "page_size", 20)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestQueryFloat(t *testing.T) {
	value, err := QueryFloat(queryContext("/?threshold=0.75"), "threshold", 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, value, 1e-9)

	value, err = QueryFloat(queryContext("/"), "threshold", 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, value, 1e-9)

	for _, raw := range []string{"high", "NaN", "nan", "Inf", "-Inf"} {
		_, err = QueryFloat(queryContext("/?threshold="+raw), "threshold", 0.5)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err), raw)
	}
}

func TestPathParam(t *testing.T) {
	c := queryContext("/")
	_, err := PathParam(c, "id")
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))

	c.SetParamNames("id")
	c.SetParamValues("abc")
	value, err := PathParam(c, "id")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}
