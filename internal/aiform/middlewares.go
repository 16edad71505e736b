// Общие middleware приложения.
package aiform

import (
	"github.com/labstack/echo/v4"

	"github.com/aisa-it/aiform/aiform.go/internal/aiform/apierrors"
)

// ProMiddleware пропускает только пользователей с ролью pro.
func ProMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !c.(AuthContext).User.IsPro() {
			return EErrorDefined(c, apierrors.ErrProRequired)
		}
		return next(c)
	}
}
