package httppresentation

import (
	"strings"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/auth"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability/logctx"
	"github.com/gin-gonic/gin"
)

const principalKey = "auth.principal"

// requireRole rejects requests without a valid bearer token of the given role.
func (h *Handler) requireRole(role user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		raw = strings.TrimSpace(raw)
		if !found || raw == "" {
			h.failure(c, &apperr.UnauthorizedError{Reason: "Unauthenticated."}, "")
			return
		}
		p, err := h.auth.Authenticate(raw)
		if err != nil {
			h.failure(c, err, "")
			return
		}
		if p.Role != role {
			h.failure(c, &apperr.ForbiddenError{Reason: "Unauthorized access."}, "")
			return
		}

		c.Set(principalKey, p)
		ctx := logctx.Enrich(c.Request.Context(), h.log, observability.F("user_id", p.UserID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func principal(c *gin.Context) auth.Principal {
	p, _ := c.MustGet(principalKey).(auth.Principal)
	return p
}
