package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	cfg := mustConfig()
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "agroanalyst", cfg.MongoDB)
	assert.Empty(t, cfg.AnalysisURL)
	assert.Equal(t, 30*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, "8080", cfg.Port)
	assert.EqualValues(t, 64, cfg.MaxInflightEvents)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MONGO_DB", "saa_test")
	t.Setenv("ANALYSIS_URL", "http://analysis.local")
	t.Setenv("ANALYSIS_TIMEOUT", "90s")
	t.Setenv("MAX_INFLIGHT_EVENTS", "8")

	cfg := mustConfig()
	assert.Equal(t, "saa_test", cfg.MongoDB)
	assert.Equal(t, "http://analysis.local", cfg.AnalysisURL)
	assert.Equal(t, 90*time.Second, cfg.AnalysisTimeout)
	assert.EqualValues(t, 8, cfg.MaxInflightEvents)
}

func TestConfigIgnoresGarbage(t *testing.T) {
	t.Setenv("ANALYSIS_TIMEOUT", "not-a-duration")
	t.Setenv("MAX_INFLIGHT_EVENTS", "-3")

	cfg := mustConfig()
	assert.Equal(t, 30*time.Second, cfg.AnalysisTimeout)
	assert.EqualValues(t, 64, cfg.MaxInflightEvents)
}
