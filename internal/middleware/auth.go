package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chang180/timesheet-saas-sub001/internal/database"
	"github.com/chang180/timesheet-saas-sub001/internal/models"
	"github.com/chang180/timesheet-saas-sub001/internal/services"
	"github.com/chang180/timesheet-saas-sub001/internal/tenant"
	"github.com/chang180/timesheet-saas-sub001/pkg/utils"
)

const currentUserKey = "current_user"

// AuthMiddleware validates bearer tokens and loads the acting user.
type AuthMiddleware struct {
	db  database.Database
	jwt *services.JWTService
}

func NewAuthMiddleware(db database.Database, jwt *services.JWTService) *AuthMiddleware {
	return &AuthMiddleware{db: db, jwt: jwt}
}

// RequireAuth validates the Authorization header, loads the user row and
// stores it in the gin context. Within a resolved tenant the user must
// belong to that company; HQ admins pass everywhere.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			utils.SendErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
			c.Abort()
			return
		}

		claims, err := m.jwt.ValidateToken(tokenString)
		if err != nil {
			utils.SendErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token", nil)
			c.Abort()
			return
		}

		var user models.User
		err = m.db.DB().WithContext(c.Request.Context()).
			Where("id = ? AND is_active = ?", claims.UserID, true).
			First(&user).Error
		if err != nil {
			utils.SendErrorResponse(c, http.StatusUnauthorized, "Account not found or deactivated", nil)
			c.Abort()
			return
		}

		if tc := tenant.FromGin(c); tc != nil && user.Role != models.RoleHQAdmin {
			if !user.BelongsTo(tc.CompanyID) {
				utils.SendErrorResponse(c, http.StatusForbidden, "Access denied to tenant", nil)
				c.Abort()
				return
			}
		}

		c.Set(currentUserKey, &user)
		ctx := utils.WithUserID(c.Request.Context(), user.ID)
		if user.CompanyID != nil {
			ctx = utils.WithCompanyID(ctx, *user.CompanyID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole gates a route group to the listed roles.
func (m *AuthMiddleware) RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			utils.SendErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
			c.Abort()
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		utils.SendErrorResponse(c, http.StatusForbidden, "Insufficient role", nil)
		c.Abort()
	}
}

// RequireManager gates a route to any role above plain member.
func (m *AuthMiddleware) RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			utils.SendErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
			c.Abort()
			return
		}
		if !user.Role.IsManager() && user.Role != models.RoleHQAdmin {
			utils.SendErrorResponse(c, http.StatusForbidden, "Insufficient role", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil before RequireAuth
// has run.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(currentUserKey); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
