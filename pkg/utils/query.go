package utils

import (
	"math"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

// QueryInt reads an optional integer query parameter
func QueryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be an integer", name)
	}
	return value, nil
}

// QueryFloat reads an optional finite float query parameter. NaN and infinities are rejected.
func QueryFloat(c echo.Context, name string, fallback float64) (float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid %s: must be a number", name)
	}
	return value, nil
}

// PathParam reads a required path parameter
func PathParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", httperror.NewHTTPError(http.StatusBadRequest, "missing "+name)
	}
	return value, nil
}
