package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jevencare/api/internal/model"
	"github.com/jevencare/api/pkg/auth"
	apperrors "github.com/jevencare/api/pkg/errors"
	"github.com/jevencare/api/pkg/httputil"
)

// ContextIdentity is the gin context key holding the caller's auth.Identity.
const ContextIdentity = "identity"

type AuthMiddleware struct {
	tokens auth.JWTService
}

func NewAuthMiddleware(tokens auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer access token and stores the caller identity in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			httputil.RespondWithError(c, apperrors.Unauthorized("Not authorized. No token provided.", nil))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			httputil.RespondWithError(c, apperrors.Unauthorized("Not authorized. Token missing.", nil))
			return
		}

		claims, err := m.tokens.ValidateAccessToken(token)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized("Not authorized. Invalid token.", err))
			return
		}
		id, err := claims.Identity()
		if err != nil {
			httputil.RespondWithError(c, apperrors.Unauthorized("Not authorized. Invalid token.", err))
			return
		}

		c.Set(ContextIdentity, id)
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthorized("Not authorized", nil))
			return
		}
		for _, r := range roles {
			if model.Role(id.Role) == r {
				c.Next()
				return
			}
		}
		httputil.RespondWithError(c, apperrors.Forbidden(
			fmt.Sprintf("Role '%s' is not authorized to access this resource", id.Role)))
	}
}

func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
