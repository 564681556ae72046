package main

import (
	"log"
	"os"
	"time"

	"covetalks-api/config"
	"covetalks-api/database"
	routes "covetalks-api/internal/app/http"
	stripeinfra "covetalks-api/internal/infra/stripe"
	"covetalks-api/internal/reconcile"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// gin.SetMode(gin.ReleaseMode) uncomment only in production
	config.LoadEnv()
	database.InitDB()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	defer logger.Sync()

	reconciler := reconcile.New(
		reconcile.NewGormStore(database.DB),
		stripeinfra.NewClient(),
		config.PRICE_TIERS,
		logger,
	)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{os.Getenv("CORS_ORIGIN")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, reconciler)

	r.Run(":" + config.PORT)
}
