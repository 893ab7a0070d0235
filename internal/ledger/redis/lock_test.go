package redis_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"

	"ws-booking/internal/ledger/redis"
)

func setupLock(t *testing.T) (*redis.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return redis.NewRedis(client), mr
}

func TestAcquireAndRelease(t *testing.T) {
	lock, _ := setupLock(t)

	ok, err := lock.Acquire("bk1")
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, lock.Release("bk1"))

	ok, err = lock.Acquire("bk1")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestAcquireContended(t *testing.T) {
	lock, _ := setupLock(t)

	ok, err := lock.Acquire("bk1")
	assert.NoError(t, err)
	assert.True(t, ok)

	// Second minter loses the lock but a different booking is unaffected.
	ok, err = lock.Acquire("bk1")
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = lock.Acquire("bk2")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestLockExpiresAfterTTL(t *testing.T) {
	lock, mr := setupLock(t)

	ok, err := lock.Acquire("bk1")
	assert.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(31 * time.Second)

	ok, err = lock.Acquire("bk1")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestCustomTTLFromEnv(t *testing.T) {
	t.Setenv("MINT_LOCK_TTL_SECONDS", "5")
	lock, mr := setupLock(t)

	ok, err := lock.Acquire("bk1")
	assert.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(6 * time.Second)

	ok, err = lock.Acquire("bk1")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseWithoutAcquire(t *testing.T) {
	lock, _ := setupLock(t)

	assert.NoError(t, lock.Release("never-locked"))
}
