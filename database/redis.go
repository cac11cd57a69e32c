package database

import (
	"context"
	"log"
	"time"

	"houseledger-backend/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

const balanceCacheTTL = 5 * time.Minute

func ConnectRedis() {
	Redis = redis.NewClient(&redis.Options{
		Addr: config.AppConfig.RedisURL,
	})

	_, err := Redis.Ping(context.Background()).Result()
	if err != nil {
		log.Println("⚠️  Redis not available, running without cache:", err)
		Redis = nil
		return
	}

	log.Println("✅ Redis connected successfully")
}

func balanceKey(houseID, userID uuid.UUID) string {
	return "balances:" + houseID.String() + ":" + userID.String()
}

// GetCachedBalances returns the cached balance payload for a user in a
// house, or "" on miss (or when Redis is down).
func GetCachedBalances(houseID, userID uuid.UUID) string {
	if Redis == nil {
		return ""
	}
	val, err := Redis.Get(context.Background(), balanceKey(houseID, userID)).Result()
	if err != nil {
		return ""
	}
	return val
}

func CacheBalances(houseID, userID uuid.UUID, payload string) {
	if Redis == nil {
		return
	}
	Redis.Set(context.Background(), balanceKey(houseID, userID), payload, balanceCacheTTL)
}

// InvalidateHouseBalances drops every cached balance for the house. Called
// after any write that changes the ledger (expense, finalized bill, approved
// payment).
func InvalidateHouseBalances(houseID uuid.UUID) {
	if Redis == nil {
		return
	}
	ctx := context.Background()
	iter := Redis.Scan(ctx, 0, "balances:"+houseID.String()+":*", 100).Iterator()
	for iter.Next(ctx) {
		Redis.Del(ctx, iter.Val())
	}
}
