package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/billing"
	"github.com/eventhub/eventhub-backend/internal/cache"
	"github.com/eventhub/eventhub-backend/internal/config"
	"github.com/eventhub/eventhub-backend/internal/http/api/admin/handlers"
	"github.com/eventhub/eventhub-backend/internal/http/api/front"
	"github.com/eventhub/eventhub-backend/internal/membership"
	"github.com/eventhub/eventhub-backend/internal/models"
	"github.com/eventhub/eventhub-backend/internal/reports"
)

// Services bundles the domain services the admin routes depend on.
type Services struct {
	Memberships  *membership.Service
	Transactions *billing.Service
	Reports      *reports.Service
	Revoked      *cache.RevocationStore // May be nil.
}

// RegisterAdminRoutes registers the admin API surface. Every route requires
// an authenticated admin user.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, svcs Services) {
	if r == nil || db == nil {
		return
	}

	group := r.Group("/api/admin")
	group.Use(front.UserAuthMiddleware(db, jwtCfg, svcs.Revoked), RequireAdmin())

	membershipHandler := handlers.NewMembershipAdminHandler(db, svcs.Memberships)
	group.GET("/memberships", membershipHandler.List)
	group.GET("/memberships/stats", membershipHandler.Stats)
	group.POST("/memberships", membershipHandler.Create)
	group.PUT("/memberships/:id", membershipHandler.Update)
	group.DELETE("/memberships/:id", membershipHandler.Delete)

	transactionHandler := handlers.NewTransactionAdminHandler(svcs.Transactions)
	group.GET("/transactions", transactionHandler.List)
	group.GET("/transactions/stats", transactionHandler.Stats)
	group.GET("/transactions/recent", transactionHandler.Recent)
	group.GET("/transactions/pending", transactionHandler.Pending)
	group.GET("/transactions/:id", transactionHandler.Get)
	group.PUT("/transactions/:id", transactionHandler.Update)
	group.POST("/transactions/:id/refund", transactionHandler.Refund)

	userHandler := handlers.NewUserAdminHandler(db)
	group.GET("/users", userHandler.List)
	group.POST("/users", userHandler.Create)
	group.GET("/users/:id", userHandler.Get)
	group.PUT("/users/:id", userHandler.Update)
	group.DELETE("/users/:id", userHandler.Delete)

	reportHandler := handlers.NewReportHandler(svcs.Reports)
	group.GET("/reports/dashboard", reportHandler.Dashboard)
	group.GET("/reports/events", reportHandler.Events)
	group.GET("/reports/users", reportHandler.Users)
}

// RequireAdmin rejects requests from non-admin users. It must run after the
// user auth middleware that sets userRole.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userRole") != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "admin access required"})
			return
		}
		c.Next()
	}
}
