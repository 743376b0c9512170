package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	StorageDriver string // mysql|sqlite
	MySQLDSN      string
	SQLitePath    string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	Gateway     string // sql|http
	SyncBaseURL string
	SyncAPIKey  string
	SyncRPS     float64

	PersistWorkers    int
	DragWatchdog      time.Duration
	HoverFrame        time.Duration
	FallbackCostPerKm float64
	WarmWorkers       int
}

// Load reads the configuration from the environment, after merging a .env
// file if one exists.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}
	c := Config{
		AppEnv:            env("APP_ENV", "prod"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		MetricsAddr:       env("METRICS_ADDR", ":9100"),
		StorageDriver:     strings.ToLower(env("STORAGE_DRIVER", "mysql")),
		MySQLDSN:          env("MYSQL_DSN", "root:root@tcp(localhost:3306)/planner?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		SQLitePath:        env("SQLITE_PATH", "data/planner.db"),
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RedisPass:         env("REDIS_PASSWORD", ""),
		RedisDB:           atoi("REDIS_DB", 0),
		CacheTTL:          time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		Gateway:           strings.ToLower(env("GATEWAY", "sql")),
		SyncBaseURL:       env("SYNC_BASE_URL", ""),
		SyncAPIKey:        env("SYNC_API_KEY", ""),
		SyncRPS:           atof("SYNC_RPS", 5),
		PersistWorkers:    atoi("PERSIST_WORKERS", 4),
		DragWatchdog:      time.Duration(atoi("DRAG_WATCHDOG_SECONDS", 20)) * time.Second,
		HoverFrame:        time.Duration(atoi("HOVER_FRAME_MS", 16)) * time.Millisecond,
		FallbackCostPerKm: atof("FALLBACK_COST_PER_KM", 0.3),
		WarmWorkers:       atoi("WARM_WORKERS", 8),
	}
	if c.StorageDriver != "mysql" && c.StorageDriver != "sqlite" {
		log.Warn().Str("driver", c.StorageDriver).Msg("unknown STORAGE_DRIVER, using mysql")
		c.StorageDriver = "mysql"
	}
	if c.Gateway == "http" && c.SyncBaseURL == "" {
		log.Warn().Msg("GATEWAY=http without SYNC_BASE_URL, using sql")
		c.Gateway = "sql"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
