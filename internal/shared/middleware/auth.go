package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"delivery-backend/internal/shared/authctx"
	"delivery-backend/internal/shared/response"
	"delivery-backend/pkg/jwt"
)

// AuthMiddleware - Middleware xác thực JWT token.
// The identity is stored both on the gin context and on the request context,
// so services can resolve the caller without depending on gin.
func AuthMiddleware(manager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Lấy token từ Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		// 2. Extract token từ "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		// 3. Verify và parse JWT
		claims, err := manager.ValidateAccessToken(parts[1])
		if err != nil {
			log.Debug().Err(err).Str("request_id", c.GetString("request_id")).Msg("token rejected")
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		// 4. Set identity vào context
		identity := authctx.Identity{
			UserID: claims.UserID,
			Login:  claims.Login,
			Role:   claims.Role,
		}
		c.Set("userID", claims.UserID)
		c.Set("login", claims.Login)
		c.Set("role", claims.Role)
		c.Request = c.Request.WithContext(authctx.WithIdentity(c.Request.Context(), identity))

		c.Next()
	}
}
