package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/minhaescola/backend/core/policy"
	"github.com/minhaescola/backend/core/user"
)

// policyMiddleware consults the authorization table before letting the
// request through.
func policyMiddleware(svc user.Service, action policy.Action, resource policy.Resource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !policy.Allow(usr, action, resource) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
