package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// Context keys set by JWTAuth.
const (
	ContextClaims     = "claims"
	ContextIdentity   = "identity"
	ContextUserID     = "user_id"
	ContextRole       = "role"
	ContextStoreID    = "store_id"
	ContextEmployeeID = "employee_id"
)

// Blacklist reports revoked token ids.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth validates the access token from "Authorization: Bearer <token>".
// With a nil blacklist revocation is not checked; a blacklist error lets the
// request through.
func JWTAuth(jwtMgr *jwt.Manager, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "token invalid or expired")
			c.Abort()
			return
		}
		if claims.TokenType != jwt.TokenAccess {
			response.Unauthorized(c, 10002, "not an access token")
			c.Abort()
			return
		}

		if blacklist != nil && claims.ID != "" {
			if revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID); err == nil && revoked {
				response.Unauthorized(c, 10003, "token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextIdentity, claims.Identity())
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextStoreID, claims.StoreID)
		c.Set(ContextEmployeeID, claims.EmployeeID)

		c.Next()
	}
}

// RoleAuth allows the request when the caller holds one of allowedRoles.
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextRole)
		if !ok {
			response.Unauthorized(c, 10002, "not authenticated")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10004, "insufficient role")
		c.Abort()
	}
}
