// Package config reads engine settings from the environment and an optional .env file.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/learnstate/internal/database"
)

type Config struct {
	DBType                 string
	DatabaseURL            string
	DBPath                 string
	DBBusyTimeout          time.Duration
	SnapshotDir            string
	BadgeCatalog           string
	ChallengeCatalog       string
	MasteryThreshold       float64
	WorkerCount            int
	BackupInterval         time.Duration
	ChallengeRetentionDays int
	ChallengesPerDay       int
}

// Load reads .env files if present, then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			log.Printf("config: ignoring %s: %v", file, err)
		}
	}

	return Config{
		DBType:                 strings.ToLower(getenv("DB_TYPE", "sqlite")),
		DatabaseURL:            getenv("DATABASE_URL", ""),
		DBPath:                 getenv("DB_PATH", filepath.Join("data", "learnstate.db")),
		DBBusyTimeout:          getenvDuration("DB_BUSY_TIMEOUT", database.DefaultBusyTimeout),
		SnapshotDir:            getenv("SNAPSHOT_DIR", filepath.Join("data", "progress")),
		BadgeCatalog:           getenv("BADGE_CATALOG", ""),
		ChallengeCatalog:       getenv("CHALLENGE_CATALOG", ""),
		MasteryThreshold:       getenvFloat("MASTERY_THRESHOLD", 0.8),
		WorkerCount:            getenvInt("WORKER_COUNT", 2),
		BackupInterval:         getenvDuration("BACKUP_INTERVAL", 6*time.Hour),
		ChallengeRetentionDays: getenvInt("CHALLENGE_RETENTION_DAYS", 30),
		ChallengesPerDay:       getenvInt("CHALLENGES_PER_DAY", 3),
	}
}

// Target returns the backing store selected by DB_TYPE
func (c Config) Target() database.Target {
	if c.DBType == "postgres" || c.DBType == "postgresql" {
		return database.Target{Driver: database.DriverPostgres, DSN: c.DatabaseURL}
	}
	return database.Target{Driver: database.DriverSQLite, DSN: c.DBPath}
}

// Options returns the connection options
func (c Config) Options() database.Options {
	return database.Options{BusyTimeout: c.DBBusyTimeout}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed > 0 && parsed <= 1 {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
