package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-desk/internal/domain"
	apperrors "github.com/spec-kit/grievance-desk/pkg/util/errorutil"
)

// RequireAdmin ensures the dashboard admin is authenticated.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType != domain.SubjectTypeAdmin {
			return apperrors.NewForbidden("admin required")
		}
		return c.Next()
	}
}
