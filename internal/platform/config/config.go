package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration: listen address, backing
// stores, and the external collaborators. Sync behavior itself lives in the
// sync config value built from this.
type Server struct {
	Addr              string
	PostgresDSN       string
	Redis             Redis
	KafkaBrokers      []string
	KafkaTopic        string
	DirectoryBase     string
	JWTSigningKey     string
	MappingFile       string
	ChunkSize         int
	Workers           int
	UpdateExisting    bool
	DeactivateMissing bool
	IncludeDisabled   bool
	UserTypes         []string
	Departments       []string
	Exclusions        []string
	NotifyRecipients  []string
}

// Redis holds connection settings for the delta-state store.
type Redis struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:              envOr("DIRSYNC_ADDR", ":8080"),
		PostgresDSN:       os.Getenv("DIRSYNC_POSTGRES_DSN"),
		Redis:             redisFromEnv(),
		KafkaBrokers:      envList("DIRSYNC_KAFKA_BROKERS"),
		KafkaTopic:        envOr("DIRSYNC_KAFKA_TOPIC", "dirsync.run-summaries"),
		DirectoryBase:     envOr("DIRSYNC_DIRECTORY_BASE", "https://graph.microsoft.com/v1.0"),
		JWTSigningKey:     envOr("DIRSYNC_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		MappingFile:       os.Getenv("DIRSYNC_MAPPING_FILE"),
		ChunkSize:         envInt("DIRSYNC_CHUNK_SIZE", 0),
		Workers:           envInt("DIRSYNC_WORKERS", 0),
		UpdateExisting:    envBool("DIRSYNC_UPDATE_EXISTING", true),
		DeactivateMissing: envBool("DIRSYNC_DEACTIVATE_MISSING", true),
		IncludeDisabled:   envBool("DIRSYNC_INCLUDE_DISABLED", false),
		UserTypes:         envList("DIRSYNC_USER_TYPES"),
		Departments:       envList("DIRSYNC_DEPARTMENTS"),
		Exclusions:        envList("DIRSYNC_EXCLUSIONS"),
		NotifyRecipients:  envList("DIRSYNC_NOTIFY_RECIPIENTS"),
	}
}

func redisFromEnv() Redis {
	return Redis{
		URL:          os.Getenv("DIRSYNC_REDIS_URL"),
		PoolSize:     envInt("DIRSYNC_REDIS_POOL_SIZE", 10),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
