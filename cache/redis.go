package cache

import (
	"context"
	"os"
	"strconv"
	"time"

	"qrcred-recovery/logger"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects to the shared cache that backs code and cooldown
// state when the coordinator runs as more than one instance
func InitRedis() (*redis.Client, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	db := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			logger.Error("Invalid REDIS_DB value, using 0", err)
		} else {
			db = parsed
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	logger.Success("Successfully connected to redis at " + addr)

	return client, nil
}
