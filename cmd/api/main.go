package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "rentalyard/api/swagger" // swagger docs
	"rentalyard/internal/calendar"
	"rentalyard/internal/config"
	"rentalyard/internal/database"
	"rentalyard/internal/events"
	"rentalyard/internal/handler"
	"rentalyard/internal/jobs"
	"rentalyard/internal/kafka"
	"rentalyard/internal/logger"
	"rentalyard/internal/middleware"
	"rentalyard/internal/scheduler"
	"rentalyard/internal/service"
	"rentalyard/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// @title           Rental Yard API
// @version         1.0
// @description     Equipment rental lifecycle and CA billing.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	os.Exit(start(config.Load, os.Stderr))
}

// start loads configuration and the logger, then serves until a signal
// arrives. Setup failures go to stderr because no logger exists yet.
func start(load func() (*config.Config, error), stderr io.Writer) int {
	cfg, err := load()
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 2
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "logger setup failed: %v\n", err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cal, err := loadCalendar(cfg, log)
	if err != nil {
		return err
	}

	stores, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = stores.Close() }()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)

	publisher := events.NewFanout(log.Named("events")).Add("websocket", wsHub)
	if cfg.Kafka.Enabled() {
		kafkaPublisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = kafkaPublisher.Close() }()
		publisher.Add("kafka", kafkaPublisher)
		log.Info("publishing lifecycle events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// Set up dependencies (Repository -> Service -> Handler)
	equipmentService := service.NewEquipmentService(stores.Equipment, stores.Rentals, stores.Maintenance, stores.Audit, stores.Tx, publisher, log)
	lifecycleService := service.NewLifecycleService(service.LifecycleDeps{
		EquipmentRepo:    stores.Equipment,
		RentalRepo:       stores.Rentals,
		MaintenanceRepo:  stores.Maintenance,
		AuditRepo:        stores.Audit,
		TxManager:        stores.Tx,
		Calendar:         cal,
		Publisher:        publisher,
		Logger:           log,
		MaintenanceMotif: cfg.MaintenanceDefaultMotif,
	})
	revenueService := service.NewRevenueService(stores.Revenue, cal)
	auditService := service.NewAuditService(stores.Audit)
	caAuditService := service.NewCAAuditService(stores.Rentals, stores.Audit, stores.Tx, publisher, log)

	auth := middleware.NewAuth([]byte(cfg.JWTSecret))

	// Initialize Handlers
	equipmentHandler := handler.NewEquipmentHandler(equipmentService, lifecycleService, auth)
	calendarHandler := handler.NewCalendarHandler(cal, auth)
	revenueHandler := handler.NewRevenueHandler(revenueService, auth)
	auditHandler := handler.NewAuditHandler(auditService, caAuditService, auth)

	cron, err := scheduler.NewScheduler(
		jobs.NewJobRunner(caAuditService, log),
		scheduler.Schedules{CAAudit: cfg.CAAuditSchedule},
		cfg.Location(),
		log,
	)
	if err != nil {
		return err
	}

	// Set up Gin Router
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, auth.Secret(), middleware.AllRoles...)
	})

	// API Routing
	equipmentHandler.RegisterRoutes(router.Group(""))
	calendarHandler.RegisterRoutes(router.Group(""))
	revenueHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wsHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		cron.Start()
		<-gctx.Done()
		cron.Stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func loadCalendar(cfg *config.Config, log *zap.Logger) (*calendar.Service, error) {
	holidays := calendar.DefaultHolidayCalendar()
	if cfg.HolidayCalendarFile != "" {
		loaded, err := calendar.LoadHolidayCalendarFile(cfg.HolidayCalendarFile)
		if err != nil {
			return nil, err
		}
		holidays = loaded
	}
	log.Info("holiday calendar loaded",
		zap.String("version", holidays.Version),
		zap.String("jurisdiction", holidays.Jurisdiction),
		zap.Int("holidays", len(holidays.Holidays())),
	)
	return calendar.NewService(calendar.Options{
		Holidays:    holidays,
		LocalLayout: cfg.DateLocalFormat,
		Location:    cfg.Location(),
	}), nil
}
