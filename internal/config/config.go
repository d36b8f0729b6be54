// Package config loads server settings from the environment.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	MongoURI   string // empty means run on the in-memory store
	DBName     string
	CORSOrigin string
}

// Load reads the environment, preferring a local .env file when present. It
// never fails: everything has a workable default for local play.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:       getEnv("PORT", "8080"),
		MongoURI:   os.Getenv("MONGO_URI"),
		DBName:     getEnv("DB_NAME", "keyduel"),
		CORSOrigin: getEnv("CORS_ORIGINS", "*"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
