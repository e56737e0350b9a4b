package rdx

import (
	"os"
	"time"

	"kilnhouse/globals"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
}

// --- Plain key helpers ---

func RdxSet(key, value string) error {
	return Conn.Set(globals.Ctx, key, value, 0).Err()
}

func SetWithExpiry(key, value string, ttl time.Duration) error {
	return Conn.Set(globals.Ctx, key, value, ttl).Err()
}

func RdxGet(key string) (string, error) {
	return Conn.Get(globals.Ctx, key).Result()
}

func RdxDel(key string) error {
	return Conn.Del(globals.Ctx, key).Err()
}

// RdxSetNX sets key only if absent; used for short-lived checkout locks.
func RdxSetNX(key, value string, ttl time.Duration) (bool, error) {
	return Conn.SetNX(globals.Ctx, key, value, ttl).Result()
}

// --- Availability cache ---
// Keyed avail:<entityType>:<entityID>. Booking handlers fill it; slot edits
// and capacity changes clear it.

func availabilityKey(entityType, entityID string) string {
	return "avail:" + entityType + ":" + entityID
}

func CacheAvailability(entityType, entityID, payload string, ttl time.Duration) error {
	return SetWithExpiry(availabilityKey(entityType, entityID), payload, ttl)
}

func GetCachedAvailability(entityType, entityID string) (string, error) {
	return RdxGet(availabilityKey(entityType, entityID))
}

func InvalidateAvailability(entityType, entityID string) error {
	return RdxDel(availabilityKey(entityType, entityID))
}

// --- Hash helpers ---

func RdxHset(hash, field, value string) error {
	return Conn.HSet(globals.Ctx, hash, field, value).Err()
}

func RdxHget(hash, field string) (string, error) {
	return Conn.HGet(globals.Ctx, hash, field).Result()
}

func RdxHdel(hash, field string) (int64, error) {
	return Conn.HDel(globals.Ctx, hash, field).Result()
}
