// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Scheduler backends for deferred reservation tasks.
const (
	SchedulerLocal = "local"
	SchedulerAMQP  = "amqp"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (dev, test, prod)
	Port           string // HTTP port to listen on
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	AutoMigrate    bool // apply the embedded schema at startup
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int

	Location *time.Location // restaurant wall clock
	SiteURL  string         // base of links sent by email

	SMTP SMTPConfig

	SchedulerBackend string // local or amqp
	SchedulerWorkers int    // max concurrent local jobs, 0 for no limit
	AMQPURL          string
	LockTTL          time.Duration
	TokenCleanupSpec string // cron expression for refresh token purging
}

// SMTPConfig configures outgoing mail.  An empty Host logs emails
// instead of sending them.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads configuration values from environment variables.  Required
// variables are enforced by must() and missing values cause the program
// to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		AutoMigrate:    envBool("DB_AUTO_MIGRATE", false),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     envInt("BCRYPT_COST", 10),

		Location: mustLocation(envStr("APP_TIMEZONE", "UTC")),
		SiteURL:  strings.TrimRight(envStr("SITE_URL", "http://localhost:8080"), "/"),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envStr("SMTP_FROM", "reservations@localhost"),
		},

		SchedulerBackend: strings.ToLower(envStr("SCHEDULER_BACKEND", SchedulerLocal)),
		SchedulerWorkers: envInt("SCHEDULER_WORKERS", 4),
		AMQPURL:          envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		LockTTL:          envDur("LOCK_TTL", 10*time.Second),
		TokenCleanupSpec: envStr("TOKEN_CLEANUP_SPEC", "@hourly"),
	}
	switch cfg.SchedulerBackend {
	case SchedulerLocal:
	case SchedulerAMQP:
		if cfg.AMQPURL == "" {
			log.Fatalf("SCHEDULER_BACKEND=amqp requires RABBITMQ_URL")
		}
	default:
		log.Fatalf("invalid SCHEDULER_BACKEND: %q", cfg.SchedulerBackend)
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("invalid APP_TIMEZONE %q: %v", name, err)
	}
	return loc
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
