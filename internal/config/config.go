package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr        string
	DBConnString    string
	ShutdownTimeout time.Duration

	// CartStore selects the cart document store: "file" or "postgres".
	CartStore    string
	CartDataDir  string
	RedisAddr    string
	RedisPass    string
	CartCacheTTL time.Duration

	BackendURL     string
	BackendTimeout time.Duration
	CORSOrigins    []string

	InventoryPoll time.Duration
	JobStatsPoll  time.Duration
	JobCheck      time.Duration

	StorefrontURL string
	ProfileDir    string
}

// FromEnv builds Config with defaults, overridden by environment variables.
// A .env file in the working directory is loaded first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		DBConnString:    os.Getenv("DB_DSN"),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),

		CartStore:    strings.ToLower(envOrDefault("CART_STORE", "file")),
		CartDataDir:  envOrDefault("CART_DATA_DIR", "data/carts"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		CartCacheTTL: envDuration("CART_CACHE_TTL_SECONDS", 15*time.Minute),

		BackendURL:     envOrDefault("BACKEND_URL", "http://localhost:3001/api"),
		BackendTimeout: envDuration("BACKEND_TIMEOUT_SECONDS", 10*time.Second),
		CORSOrigins:    envList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		InventoryPoll: envDuration("INVENTORY_POLL_SECONDS", 30*time.Second),
		JobStatsPoll:  envDuration("JOB_STATS_POLL_SECONDS", 30*time.Second),
		JobCheck:      envDuration("JOB_CHECK_SECONDS", 10*time.Second),

		StorefrontURL: envOrDefault("STOREFRONT_URL", "http://localhost:8080/api"),
		ProfileDir:    envOrDefault("CART_PROFILE_DIR", defaultProfileDir()),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultProfileDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront"
	}
	return dir + string(os.PathSeparator) + "storefront"
}
