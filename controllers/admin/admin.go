package admin

import (
	"time"

	"qrcred-recovery/logger"
	auditModel "qrcred-recovery/models/audit"
	recoveryService "qrcred-recovery/services/recovery"
	"qrcred-recovery/types"
	recoveryTypes "qrcred-recovery/types/recovery"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// Controller handles the operator-only debug/admin surface. Routes
// using it must sit behind RequireOperator; none of its responses ever
// contain a raw code value.
type Controller struct {
	Service *recoveryService.Coordinator
	DB      *gorm.DB
}

// NewController creates an admin controller. db may be nil when audit
// persistence is disabled; the stats endpoint then reports that.
func NewController(service *recoveryService.Coordinator, db *gorm.DB) *Controller {
	return &Controller{
		Service: service,
		DB:      db,
	}
}

// PurgeExpired sweeps every expired code record and reports what was removed
func (ac *Controller) PurgeExpired(c *fiber.Ctx) error {
	keys, err := ac.Service.PurgeExpired(c.UserContext())
	if err != nil {
		logger.Error("Purge of expired codes failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to purge expired codes",
		})
	}

	purged := make([]string, 0, len(keys))
	for _, key := range keys {
		purged = append(purged, key.String())
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Expired codes purged",
		Data: recoveryTypes.PurgeResponse{
			Purged: len(purged),
			Keys:   purged,
		},
	})
}

// Inspect lists active code metadata for accounts matching the prefix
// query parameter. Code values are reported as length only.
func (ac *Controller) Inspect(c *fiber.Ctx) error {
	entries, err := ac.Service.Inspect(c.UserContext(), c.Query("prefix"))
	if err != nil {
		logger.Error("Inspect of active codes failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to inspect active codes",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Active codes",
		Data:    entries,
	})
}

// Stats reports today's delivery attempt counts per outcome from the
// audit trail, plus the current in-flight count
func (ac *Controller) Stats(c *fiber.Ctx) error {
	if ac.DB == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(types.ApiResponse{
			Status:  fiber.StatusServiceUnavailable,
			Message: "Audit persistence is disabled",
		})
	}

	since := now.BeginningOfDay()

	type outcomeCount struct {
		Outcome string
		Count   int
	}
	var counts []outcomeCount
	err := ac.DB.Model(&auditModel.DeliveryEvent{}).
		Select("outcome, count(*) as count").
		Where("created_at >= ?", since).
		Group("outcome").
		Scan(&counts).Error
	if err != nil {
		logger.Error("Failed to query delivery stats", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to query delivery stats",
		})
	}

	stats := recoveryTypes.StatsResponse{
		Since:    since.Format(time.RFC3339),
		Outcomes: make(map[string]int),
		InFlight: ac.Service.InFlightCount(),
	}
	for _, row := range counts {
		stats.Outcomes[row.Outcome] = row.Count
		stats.Total += int64(row.Count)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Delivery stats",
		Data:    stats,
	})
}
