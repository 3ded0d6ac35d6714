package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/handler"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/service"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/config"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting sigabe service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := migrate(db); err != nil {
		zapLogger.Fatal("Database migration failed", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis
	rdb := initRedis(cfg.Redis)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, dashboard cache disabled", zap.Error(err))
		rdb = nil
	}

	// 依赖装配
	clock := service.NewRealClock()
	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, rdb, cfg, clock, zapLogger)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	// 后台扫描：借用逾期、预约过期
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runSweepLoop(sweepCtx, services.Sweep, cfg.Policy.SweepInterval, zapLogger)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

// migrate 建表和序列。设备编码依赖 equipment_code_seq。
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.Equipment{},
		&entity.Loan{},
		&entity.Reservation{},
		&entity.Incident{},
		&entity.Maintenance{},
		&entity.ActivityLog{},
		&entity.User{},
	); err != nil {
		return err
	}
	return db.Exec("CREATE SEQUENCE IF NOT EXISTS equipment_code_seq").Error
}

// runSweepLoop 周期性跑扫描，直到收到退出信号
func runSweepLoop(ctx context.Context, sweep *service.SweepService, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Sweep loop stopped")
			return
		case <-ticker.C:
			sweep.Run(ctx)
		}
	}
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 设备台账
		equipments := api.Group("/equipments")
		{
			equipments.GET("", h.Equipment.List)
			equipments.POST("", middleware.RequireRole("asset_manager"), h.Equipment.Create)
			equipments.GET("/:id", h.Equipment.Get)
			equipments.PUT("/:id", middleware.RequireRole("asset_manager"), h.Equipment.Update)
			equipments.POST("/:id/retire", middleware.RequireRole("asset_manager"), h.Equipment.Retire)
			equipments.GET("/:id/availability", h.Reservation.Availability)
		}

		// 借用
		loans := api.Group("/loans")
		{
			loans.GET("", h.Loan.List)
			loans.GET("/export", middleware.RequireRole("asset_manager"), h.Loan.Export)
			loans.POST("", h.Loan.Create)
			loans.GET("/:id", h.Loan.Get)
			loans.POST("/:id/approve", middleware.RequireRole("asset_manager"), h.Loan.Approve)
			loans.POST("/:id/reject", middleware.RequireRole("asset_manager"), h.Loan.Reject)
			loans.POST("/:id/return", h.Loan.Return)
		}

		// 预约
		reservations := api.Group("/reservations")
		{
			reservations.GET("", h.Reservation.List)
			reservations.POST("", h.Reservation.Create)
			reservations.GET("/:id", h.Reservation.Get)
			reservations.POST("/:id/approve", middleware.RequireRole("asset_manager"), h.Reservation.Approve)
			reservations.POST("/:id/reject", middleware.RequireRole("asset_manager"), h.Reservation.Reject)
			reservations.POST("/:id/cancel", h.Reservation.Cancel)
			reservations.POST("/:id/activate", h.Reservation.Activate)
			reservations.POST("/:id/complete", h.Reservation.Complete)
			reservations.POST("/:id/convert", middleware.RequireRole("asset_manager"), h.Reservation.ConvertToLoan)
		}

		// 故障报修
		incidents := api.Group("/incidents")
		{
			incidents.GET("", h.Incident.List)
			incidents.POST("", h.Incident.Report)
			incidents.GET("/:id", h.Incident.Get)
			incidents.POST("/:id/review", middleware.RequireRole("asset_manager"), h.Incident.Review)
			incidents.POST("/:id/assign", middleware.RequireRole("asset_manager"), h.Incident.Assign)
			incidents.POST("/:id/unassign", middleware.RequireRole("asset_manager"), h.Incident.Unassign)
			incidents.POST("/:id/start-repair", middleware.RequireRole("asset_manager"), h.Incident.StartRepair)
			incidents.POST("/:id/resolve", middleware.RequireRole("asset_manager"), h.Incident.Resolve)
			incidents.POST("/:id/close", middleware.RequireRole("asset_manager"), h.Incident.Close)
			incidents.POST("/:id/reopen", h.Incident.Reopen)
		}

		// 维保
		maintenances := api.Group("/maintenances")
		{
			maintenances.GET("", h.Maintenance.List)
			maintenances.POST("", middleware.RequireRole("asset_manager"), h.Maintenance.Schedule)
			maintenances.GET("/:id", h.Maintenance.Get)
			maintenances.POST("/:id/start", middleware.RequireRole("asset_manager"), h.Maintenance.Start)
			maintenances.POST("/:id/complete", middleware.RequireRole("asset_manager"), h.Maintenance.Complete)
			maintenances.POST("/:id/cancel", middleware.RequireRole("asset_manager"), h.Maintenance.Cancel)
		}

		// 看板 + 操作日志
		api.GET("/dashboard/summary", h.Dashboard.Summary)
		api.GET("/activity/:entity_type/:entity_id", h.Equipment.Activity)

		// 管理
		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole("asset_admin"))
		{
			admin.POST("/sweep", h.Dashboard.RunSweep)
			admin.POST("/sweeps/overdue-loans", h.Dashboard.SweepOverdueLoans)
			admin.POST("/sweeps/stale-reservations", h.Dashboard.SweepStaleReservations)
		}
	}
}
