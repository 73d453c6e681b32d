package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/billing"
	"github.com/eventhub/eventhub-backend/internal/cache"
	"github.com/eventhub/eventhub-backend/internal/config"
	"github.com/eventhub/eventhub-backend/internal/db"
	"github.com/eventhub/eventhub-backend/internal/events"
	"github.com/eventhub/eventhub-backend/internal/gateway"
	apihttp "github.com/eventhub/eventhub-backend/internal/http"
	"github.com/eventhub/eventhub-backend/internal/http/api/admin"
	"github.com/eventhub/eventhub-backend/internal/http/api/front"
	"github.com/eventhub/eventhub-backend/internal/logging"
	"github.com/eventhub/eventhub-backend/internal/membership"
	"github.com/eventhub/eventhub-backend/internal/reports"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the API server and blocks until the context is cancelled.
func RunServer(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(config.ResolveConfigPath(configPath))
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Log)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	revoked := cache.NewRevocationStore(cfg.Redis)
	defer func() { _ = revoked.Close() }()

	gw := gateway.New(cfg.Gateway.ServerKey, cfg.Gateway.Production)
	if gw == nil {
		log.Info("payment gateway disabled, online purchases stay pending")
	}

	membershipSvc := membership.NewService(conn, gw)
	billingSvc := billing.NewService(conn, gw)
	eventSvc := events.NewService(conn)
	reportSvc := reports.NewService(conn)

	engine := BuildEngine(conn, cfg, Services{
		Memberships:  membershipSvc,
		Transactions: billingSvc,
		Events:       eventSvc,
		Reports:      reportSvc,
		Revoked:      revoked,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Memberships  *membership.Service
	Transactions *billing.Service
	Events       *events.Service
	Reports      *reports.Service
	Revoked      *cache.RevocationStore
}

// BuildEngine assembles the gin engine with middleware and both API surfaces.
func BuildEngine(conn *gorm.DB, cfg *config.Config, svcs Services) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), apihttp.RequestIDMiddleware(), apihttp.AccessLogMiddleware())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	front.RegisterFrontRoutes(engine, conn, cfg.JWT, front.Services{
		Memberships:  svcs.Memberships,
		Transactions: svcs.Transactions,
		Events:       svcs.Events,
		Revoked:      svcs.Revoked,
	})
	admin.RegisterAdminRoutes(engine, conn, cfg.JWT, admin.Services{
		Memberships:  svcs.Memberships,
		Transactions: svcs.Transactions,
		Reports:      svcs.Reports,
		Revoked:      svcs.Revoked,
	})
	return engine
}
