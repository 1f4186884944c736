package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cpap-admin-server/internal/config"
	"cpap-admin-server/internal/dates"
	"cpap-admin-server/internal/logger"
	"cpap-admin-server/internal/models"
	"cpap-admin-server/internal/routes"
)

func main() {
	// A missing .env is fine: the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	zlog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "cpap-admin-server")
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	db, err := models.InitDB(models.DatabaseConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Debug:  cfg.IsDevelopment(),
	})
	if err != nil {
		zlog.Fatal("error connecting to database", zap.Error(err), zap.String("driver", cfg.Database.Driver))
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logger.GinMiddleware(zlog), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, db, cfg, zlog, dates.SystemClock(cfg.Location))

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	zlog.Info("server starting", zap.String("addr", serverAddr), zap.String("env", cfg.Environment))
	if err := router.Run(serverAddr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
