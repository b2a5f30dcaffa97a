package routes

import (
	"encoding/base64"
	"os"

	"qrcred-recovery/controllers/admin"
	recoveryCtrl "qrcred-recovery/controllers/recovery"
	"qrcred-recovery/httpServices/gateway"
	"qrcred-recovery/httpServices/identity"
	"qrcred-recovery/logger"
	"qrcred-recovery/middleware"
	auditService "qrcred-recovery/services/audit"
	"qrcred-recovery/services/delivery"
	"qrcred-recovery/services/recovery"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// SetupRoutes wires the collaborator clients, stores and coordinator,
// and registers the public and admin endpoints. db and rdb may be nil:
// without db the audit trail is disabled, without rdb the in-memory
// single-instance stores are used.
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client) {
	resolver := identity.NewClient(os.Getenv("IDENTITY_BASE_URL"))
	dispatcher := delivery.NewDispatcher(
		gateway.NewEmailClient(os.Getenv("EMAIL_GATEWAY_URL")),
		gateway.NewSMSClient(os.Getenv("SMS_GATEWAY_URL")),
		gateway.NewWhatsAppClient(os.Getenv("WHATSAPP_GATEWAY_URL")),
	)

	codes, limiter := buildStores(rdb)
	coordinator := recovery.NewCoordinator(resolver, dispatcher, codes, limiter)

	if db != nil {
		recorder := auditService.NewRecorder(db)
		go recorder.Process()
		coordinator.WithAuditor(recorder)
	} else {
		logger.Warning("Audit persistence disabled, delivery attempts will not be recorded")
	}

	recoveryController := recoveryCtrl.NewController(coordinator)
	adminController := admin.NewController(coordinator, db)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/recovery/request",
		middleware.PerIPRateLimit(rate.Limit(1), 5),
		recoveryController.RequestCode)

	/*=============================================================================
	| Operator Routes
	===============================================================================*/
	adminGroup := api.Group("/admin", middleware.RequireOperator())
	adminGroup.Post("/recovery/purge", adminController.PurgeExpired)
	adminGroup.Get("/recovery/inspect", adminController.Inspect)
	adminGroup.Get("/recovery/stats", adminController.Stats)
}

// buildStores picks the shared redis backend when available, otherwise
// the in-memory single-instance one
func buildStores(rdb *redis.Client) (recovery.CodeStore, recovery.RateLimiter) {
	if rdb == nil {
		return recovery.NewMemoryCodeStore(), recovery.NewMemoryRateLimiter()
	}

	codes, err := recovery.NewRedisCodeStore(rdb, loadSealKey())
	if err != nil {
		logger.Fatal("Invalid RECOVERY_SEAL_KEY: " + err.Error())
	}
	return codes, recovery.NewRedisRateLimiter(rdb)
}

// loadSealKey reads the base64 AES-256 key used to seal codes in redis.
// An empty value disables sealing, which is only acceptable when redis
// itself is trusted.
func loadSealKey() []byte {
	raw := os.Getenv("RECOVERY_SEAL_KEY")
	if raw == "" {
		logger.Warning("RECOVERY_SEAL_KEY not set, codes will be stored unsealed in redis")
		return nil
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		logger.Fatal("RECOVERY_SEAL_KEY is not valid base64: " + err.Error())
	}
	return key
}
