package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// staffMiddleware only lets coaches and head coaches through.
func staffMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsStaff() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// headCoachMiddleware only lets head coaches through.
func headCoachMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsHeadCoach() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// intParam parses a numeric path parameter; a malformed value is a 404.
func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

// intQueryParam parses an optional numeric query parameter, 0 when absent.
func intQueryParam(ctx echo.Context, name string) int {
	n, _ := strconv.Atoi(ctx.QueryParam(name))
	return n
}
