package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/application/integrity"
	ncrapp "github.com/returns/backend/internal/application/ncr"
	appreturns "github.com/returns/backend/internal/application/returns"
	"github.com/returns/backend/internal/infrastructure/auth"
	"github.com/returns/backend/internal/infrastructure/config"
	"github.com/returns/backend/internal/infrastructure/counter"
	"github.com/returns/backend/internal/infrastructure/logger"
	"github.com/returns/backend/internal/infrastructure/store"
	"github.com/returns/backend/internal/infrastructure/telemetry"
	"github.com/returns/backend/internal/interfaces/http/handler"
	"github.com/returns/backend/internal/interfaces/http/middleware"
	"github.com/returns/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting returns backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	st, closeStore := openStore(cfg, log)
	defer closeStore()

	records := store.NewReturnRecordRepository(st, log)
	orders := store.NewCollectionOrderRepository(st, log)
	reports := store.NewNCRRepository(st, log)
	docIndex := store.NewDocumentIndex(st)
	numbers := counter.NewServiceWithRetries(st, cfg.Counter.MaxRetries, log)

	authz := auth.NewPINAuthorizer(map[auth.Action]string{
		auth.ActionStepBack:     cfg.Auth.StepBackPIN,
		auth.ActionDeleteRecord: cfg.Auth.DeleteRecordPIN,
		auth.ActionSweepOrphans: cfg.Auth.SweepOrphansPIN,
		auth.ActionResetCounter: cfg.Auth.ResetCounterPIN,
		auth.ActionForceImport:  cfg.Auth.ForceImportPIN,
	})

	recordCache, unsubRecords, err := appreturns.NewRecordCache(records, log)
	if err != nil {
		log.Fatal("Failed to subscribe record cache", zap.Error(err))
	}
	defer unsubRecords()
	orderCache, unsubOrders, err := appreturns.NewOrderCache(orders, log)
	if err != nil {
		log.Fatal("Failed to subscribe order cache", zap.Error(err))
	}
	defer unsubOrders()
	reportCache, unsubReports, err := ncrapp.NewReportCache(reports, log)
	if err != nil {
		log.Fatal("Failed to subscribe report cache", zap.Error(err))
	}
	defer unsubReports()

	returnsSvc := appreturns.NewService(records, orders, docIndex, numbers, authz,
		recordCache, orderCache, log)
	ncrSvc := ncrapp.NewService(reports, records, numbers, reportCache, recordCache, log)
	integritySvc := integrity.NewService(records, recordCache, reportCache, authz, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up validator", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(cfg.App.Name))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.NewRateLimiter(300, time.Minute).Middleware())

	router.NewRouter(engine).
		Register(handler.NewRecordHandler(returnsSvc)).
		Register(handler.NewCollectionHandler(returnsSvc)).
		Register(handler.NewNCRHandler(ncrSvc)).
		Register(handler.NewImportHandler(returnsSvc, authz, handler.ImportConfig{
			SourceCustomer:  cfg.Import.SourceCustomer,
			MaxRows:         cfg.Import.MaxRows,
			MaxFileSize:     cfg.Import.MaxFileSize,
			RequireForcePin: cfg.Auth.ForceImportPIN != "",
		}, log)).
		Register(handler.NewIntegrityHandler(integritySvc)).
		Register(handler.NewCounterHandler(numbers, authz)).
		Register(handler.NewSystemHandler()).
		Setup()

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openStore connects to Redis when enabled, falling back to the in-memory
// store when the connection fails. The fallback keeps a dev machine useful
// without a Redis install; production should treat the warning as a page.
func openStore(cfg *config.Config, log *zap.Logger) (store.Store, func()) {
	if cfg.Redis.Enabled {
		rs, err := store.NewRedisStore(store.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err == nil {
			log.Info("Redis store connected",
				zap.String("host", cfg.Redis.Host),
				zap.Int("port", cfg.Redis.Port))
			return rs, func() {
				if err := rs.Close(); err != nil {
					log.Error("Error closing redis store", zap.Error(err))
				}
			}
		}
		log.Warn("Redis unavailable, falling back to in-memory store", zap.Error(err))
	}
	return store.NewMemoryStore(), func() {}
}
