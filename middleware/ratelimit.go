package middleware

import (
	"sync"
	"time"

	"qrcred-recovery/types"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// visitor tracks one client IP's limiter
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerIPRateLimit throttles a route per client IP. This is a coarse
// abuse guard in front of the per-key cooldown, not a replacement for
// it.
func PerIPRateLimit(r rate.Limit, burst int) fiber.Handler {
	var mu sync.Mutex
	visitors := make(map[string]*visitor)

	// Drop idle visitors so the map doesn't grow without bound
	go func() {
		for {
			time.Sleep(time.Minute)
			mu.Lock()
			for ip, v := range visitors {
				if time.Since(v.lastSeen) > 3*time.Minute {
					delete(visitors, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *fiber.Ctx) error {
		ip := c.IP()

		mu.Lock()
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(r, burst)}
			visitors[ip] = v
		}
		v.lastSeen = time.Now()
		allowed := v.limiter.Allow()
		mu.Unlock()

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(types.ApiResponse{
				Status:  fiber.StatusTooManyRequests,
				Message: "Too many requests from this address",
			})
		}
		return c.Next()
	}
}
