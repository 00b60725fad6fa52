package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/labstack/echo/v4"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// UserClaims are the token claims fern reads
type UserClaims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
}

// VerifyFunc verifies a raw bearer token and returns its claims
type VerifyFunc func(ctx context.Context, raw string) (UserClaims, error)

// OIDCVerifier builds a VerifyFunc from the issuer's discovery document
func OIDCVerifier(ctx context.Context, issuer, clientID string) (VerifyFunc, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	return func(ctx context.Context, raw string) (UserClaims, error) {
		idToken, err := verifier.Verify(ctx, raw)
		if err != nil {
			return UserClaims{}, err
		}
		var claims UserClaims
		if err := idToken.Claims(&claims); err != nil {
			return UserClaims{}, err
		}
		return claims, nil
	}, nil
}

// Authentication requires a valid bearer token and makes its subject the request owner
func Authentication(logger ectologger.Logger, verify VerifyFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracing.StartSpan(c.Request().Context(), "middleware.Authentication")
			defer span.End()

			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				logger.WithContext(ctx).Warn("request is missing bearer token")
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer")
			}

			verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			claims, err := verify(verifyCtx, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				logger.WithContext(ctx).WithError(err).Warn("token is invalid")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.Sub == "" {
				logger.WithContext(ctx).Warn("token has no subject")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx = fernctx.SetOwnerID(ctx, claims.Sub)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
