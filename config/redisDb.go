package config

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

var ErrRedisNotConnected = errors.New("redis is not connected")

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

// SetRedisClient installs an already connected client, e.g. one shared by tests.
func SetRedisClient(client *redis.Client) {
	rdb = client
	if client == nil {
		locker = nil
		return
	}
	locker = redislock.New(client)
}

func GetRedisBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if rdb == nil {
		return nil, false, ErrRedisNotConnected
	}
	val, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func SetRedisBytes(ctx context.Context, key string, value []byte, exp time.Duration) error {
	if rdb == nil {
		return ErrRedisNotConnected
	}
	return rdb.Set(ctx, key, value, exp).Err()
}

func GetRedisValue(ctx context.Context, key string) (string, bool, error) {
	val, ok, err := GetRedisBytes(ctx, key)
	return string(val), ok, err
}

func SetRedisValue(ctx context.Context, key string, value string, exp time.Duration) error {
	return SetRedisBytes(ctx, key, []byte(value), exp)
}

// ConnectRedisWithRetry connects and sets the global Redis client + lock client.
// Call this from main() AFTER the HTTP server is listening.
func ConnectRedisWithRetry(ctx context.Context) {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
		log.Printf("REDIS_ADDRESS not set; defaulting to %s", redisAddr)
	}

	var attempt int
	for {
		attempt++
		client := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intFromEnv("REDIS_DB", 0),
			PoolSize: intFromEnv("REDIS_POOL_SIZE", 20),
		})
		err := client.Ping(ctx).Err()
		if err == nil {
			SetRedisClient(client)
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return
		}
		client.Close()

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
		select {
		case <-ctx.Done():
			log.Printf("giving up on redis: %v", ctx.Err())
			return
		case <-time.After(sleep):
		}
	}
}

// ObtainRunLock takes the cross-instance lock that serializes reconciliation runs.
// It retries until ctx is done.
func ObtainRunLock(ctx context.Context, key string, ttl time.Duration) (*redislock.Lock, error) {
	lc := GetRedisLock()
	if lc == nil {
		return nil, ErrRedisNotConnected
	}
	return lc.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(250 * time.Millisecond),
	})
}
