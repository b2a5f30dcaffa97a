package main

import (
	"os"
	"time"

	"qrcred-recovery/cache"
	"qrcred-recovery/database"
	"qrcred-recovery/logger"
	"qrcred-recovery/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		BodyLimit:    1 * 1024 * 1024,
	})
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	// Audit persistence is optional; codes themselves are never stored
	// in the database.
	var db *gorm.DB
	if os.Getenv("DB_HOST") != "" {
		var err error
		db, err = database.InitDB()
		if err != nil {
			logger.Error("Failed to connect to the database", err)
			return
		}
	} else {
		logger.Warning("DB_HOST not set, running without audit persistence")
	}

	// Redis backs the code and cooldown state when the service runs as
	// more than one instance.
	var rdb *redis.Client
	if os.Getenv("RECOVERY_BACKEND") == "redis" {
		var err error
		rdb, err = cache.InitRedis()
		if err != nil {
			logger.Error("Failed to connect to redis", err)
			return
		}
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("FRONTEND_URL"),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	routes.SetupRoutes(app, db, rdb)

	appHost := os.Getenv("APP_HOST")
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		appPort = "8080"
	}
	logger.Success("Server is running on ip: " + appHost + " port: " + appPort)
	if err := app.Listen(appHost + ":" + appPort); err != nil {
		logger.Fatal("Server stopped: " + err.Error())
	}
}
