package storage

import (
	"context"
	"time"

	rds "github.com/chiendz11/Badminton-manager-microservices-sub002/service/storage/redis"
)

// presence key: social:presence:<user>
// Value: gateway node id, TTL controls the online validity period.
// Every operation degrades to a no-op when redis is unavailable;
// presence is a decoration, never a dependency.
func presenceKey(user string) string { return "social:presence:" + user }

// PresenceOnline sets the user as online and renews the TTL.
func PresenceOnline(ctx context.Context, user, gatewayID string, ttl time.Duration) error {
	rdb, ok := rds.TryGetRedis()
	if !ok {
		return nil
	}
	return rdb.Set(ctx, presenceKey(user), gatewayID, ttl).Err()
}

// PresenceOffline actively sets the user offline (deletes the key).
func PresenceOffline(ctx context.Context, user string) error {
	rdb, ok := rds.TryGetRedis()
	if !ok {
		return nil
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookupMany resolves online flags for a batch of users in one round trip.
func PresenceLookupMany(ctx context.Context, users []string) (map[string]bool, error) {
	out := make(map[string]bool, len(users))
	rdb, ok := rds.TryGetRedis()
	if !ok || len(users) == 0 {
		return out, nil
	}
	keys := make([]string, 0, len(users))
	for _, u := range users {
		keys = append(keys, presenceKey(u))
	}
	vals, err := rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		out[u] = vals[i] != nil
	}
	return out, nil
}
