package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis holds the mint lock used while a cash token is being looked up
// and created for a booking. It is the conditional-create primitive that
// backs the at-most-one-pending-token guard.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getMintLockTTL returns the lock TTL from the environment or the default.
func (r *Redis) getMintLockTTL() time.Duration {
	defaultTTL := 30 * time.Second

	ttlStr := os.Getenv("MINT_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultTTL
	}

	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil {
		r.Logger.Println("REDIS: Invalid MINT_LOCK_TTL_SECONDS value '" + ttlStr + "', using default 30 seconds")
		return defaultTTL
	}
	return time.Duration(ttlSec) * time.Second
}

// Acquire takes the mint lock for a booking. The TTL bounds how long a
// crashed minter can hold the guard.
func (r *Redis) Acquire(bookingID string) (bool, error) {
	key := "mint_lock:" + bookingID
	ok, err := r.Client.SetNX(context.Background(), key, "1", r.getMintLockTTL()).Result()
	return ok, err
}

// Release drops the mint lock. Releasing an already-expired lock is not
// an error.
func (r *Redis) Release(bookingID string) error {
	ctx := context.Background()
	key := fmt.Sprintf("mint_lock:%s", bookingID)
	_, err := r.Client.Del(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	return err
}
