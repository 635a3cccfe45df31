package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// placeholder token shipped in .env.example; treated the same as an unset token.
const tokenPlaceholder = "YOUR_BOT_TOKEN"

type Config struct {
	AppEnv         string // APP_ENV
	Port           string // PORT
	DBPath         string // DB_PATH
	MigrationsPath string // MIGRATIONS_PATH
	BotToken       string // TELEGRAM_BOT_TOKEN
	AdminIDs       []int64
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "production"),
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "./ishoratech.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		BotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	admins, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AdminIDs = admins

	return cfg, nil
}

// Validate checks startup-abort conditions: missing/placeholder bot token
// and an empty operator allow-list.
func (c *Config) Validate() error {
	if c.BotToken == "" || c.BotToken == tokenPlaceholder {
		return errors.New("config: TELEGRAM_BOT_TOKEN is not set")
	}
	if len(c.AdminIDs) == 0 {
		return errors.New("config: ADMIN_IDS must list at least one operator")
	}
	return nil
}

// IsAdmin reports whether id is on the operator allow-list.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: invalid ADMIN_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
