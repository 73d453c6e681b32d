package front

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/billing"
	"github.com/eventhub/eventhub-backend/internal/cache"
	"github.com/eventhub/eventhub-backend/internal/config"
	"github.com/eventhub/eventhub-backend/internal/events"
	"github.com/eventhub/eventhub-backend/internal/http/api/front/handlers"
	"github.com/eventhub/eventhub-backend/internal/membership"
	"github.com/eventhub/eventhub-backend/internal/models"
	"github.com/eventhub/eventhub-backend/internal/security"
)

// Services bundles the domain services the front routes depend on.
type Services struct {
	Memberships  *membership.Service
	Transactions *billing.Service
	Events       *events.Service
	Revoked      *cache.RevocationStore // May be nil.
}

// RegisterFrontRoutes registers public and authenticated member routes.
func RegisterFrontRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, svcs Services) {
	if r == nil || db == nil {
		return
	}

	front := r.Group("/api/front")

	authHandler := handlers.NewAuthHandler(db, jwtCfg, svcs.Revoked)
	front.POST("/register", authHandler.Register)
	front.POST("/login", authHandler.Login)

	membershipHandler := handlers.NewMembershipHandler(db, svcs.Memberships)
	front.GET("/memberships/pricing", membershipHandler.Pricing)

	eventHandler := handlers.NewEventHandler(db, svcs.Events)
	front.GET("/events", eventHandler.List)
	front.GET("/events/:id", eventHandler.Get)

	authed := front.Group("")
	authed.Use(UserAuthMiddleware(db, jwtCfg, svcs.Revoked))

	authed.POST("/logout", authHandler.Logout)

	profileHandler := handlers.NewProfileHandler(db)
	authed.GET("/profile", profileHandler.Get)
	authed.PUT("/profile", profileHandler.Update)
	authed.PUT("/profile/password", profileHandler.ChangePassword)

	authed.POST("/memberships", membershipHandler.Purchase)
	authed.GET("/memberships/current", membershipHandler.Current)
	authed.GET("/memberships/history", membershipHandler.History)
	authed.DELETE("/memberships/:id", membershipHandler.Cancel)

	transactionHandler := handlers.NewTransactionHandler(svcs.Transactions)
	authed.GET("/transactions", transactionHandler.History)
	authed.GET("/transactions/:ref", transactionHandler.Get)

	authed.POST("/events", eventHandler.Create)
	authed.PUT("/events/:id", eventHandler.Update)
	authed.POST("/events/:id/publish", eventHandler.Publish)
	authed.DELETE("/events/:id", eventHandler.Delete)
	authed.POST("/events/:id/register", eventHandler.Register)
	authed.DELETE("/events/:id/register", eventHandler.Unregister)
	authed.GET("/events/mine", eventHandler.Mine)
}

// UserAuthMiddleware validates user JWTs and loads the user into context.
func UserAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig, revoked *cache.RevocationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}
		if revoked != nil && revoked.IsRevoked(c.Request.Context(), token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "token revoked"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "user not found"})
			return
		}
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "account is deactivated"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("userRole", user.Role)
		c.Next()
	}
}
