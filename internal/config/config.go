package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env              string
	HTTPPort         string
	DeviceKey        string
	DataDir          string
	LedgerPath       string
	VoiceDir         string
	WebDir           string
	CORSOrigins      []string
	RateLimitBackend string
	RateLimitPerMin  int
	RedisAddr        string
}

// Load returns application config populated from environment variables with
// sensible defaults. A .env file in the working directory is read first when
// present; real environment variables win over it.
func Load() App {
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "data")
	return App{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DeviceKey:        getEnv("DEVICE_KEY", "dev-device-key-change"),
		DataDir:          dataDir,
		LedgerPath:       getEnv("LEDGER_FILE", filepath.Join(dataDir, "attendance.xlsx")),
		VoiceDir:         getEnv("VOICE_DIR", filepath.Join(dataDir, "voices")),
		WebDir:           getEnv("WEB_DIR", "web"),
		CORSOrigins:      splitEnv("CORS_ORIGINS", "*"),
		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),
		RateLimitPerMin:  intEnv("RATE_LIMIT_PER_MIN", 120),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitEnv(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
