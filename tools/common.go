package tools

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
)

// Environment variables understood by the service:
// HTTP_ADDR        (default :8080)
// HTTP_DEBUG       (default false; true keeps gin in debug mode)
// MONGO_URI        (default mongodb://localhost:27017)
// MONGO_DATABASE   (default socialChat)
// REDIS_ADDR       (default 127.0.0.1:6379)
// REDIS_PASSWORD   (default empty)
// REDIS_DB         (default 0)
// NATS_SERVERS     (default nats://127.0.0.1:4222, comma separated)
// NATS_NAME        (default social-service)
// USER_SVC_URL     (default http://127.0.0.1:8081)
// NODE_ID          (default 1, snowflake node)
// IDEM_TTL_MS      (default 60000, consumer idempotency window)

func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func GetEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "true" || v == "1" || v == "yes"
}

// RandID returns a random hex id, used for connection ids and event ids.
func RandID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
