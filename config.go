package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	MongoDB  string

	// AnalysisURL selects the real processor; empty means the canned
	// in-process implementation.
	AnalysisURL     string
	AnalysisTimeout time.Duration

	Port              string
	MaxInflightEvents int64
}

func mustConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		MongoURI:          getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getenv("MONGO_DB", "agroanalyst"),
		AnalysisURL:       getenv("ANALYSIS_URL", ""),
		AnalysisTimeout:   getdur("ANALYSIS_TIMEOUT", 30*time.Second),
		Port:              getenv("PORT", "8080"),
		MaxInflightEvents: getint("MAX_INFLIGHT_EVENTS", 64),
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getint(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}
