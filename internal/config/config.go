package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds the runtime configuration.  Each field maps to one
// environment variable; required variables abort startup when missing.
type Config struct {
	Env              string // application environment ("dev", "prod")
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host
	DBPort           string // database port
	DBName           string // database name
	JWTSecret        string // secret used to sign operator tokens
	OperatorPassHash string // bcrypt hash of the shared operator password
	TokenTTLMin      int    // operator token lifetime in minutes
}

// Load reads the configuration from the environment.  Missing required
// variables are fatal: the process is unusable without them.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		JWTSecret:        must("JWT_SECRET"),
		OperatorPassHash: must("OPERATOR_PASS_HASH"),
		TokenTTLMin:      mustInt("TOKEN_TTL_MIN"),
	}
}

// must returns the value of a required environment variable, exiting
// with a fatal log message when it is unset or empty.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is must() plus integer conversion.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
