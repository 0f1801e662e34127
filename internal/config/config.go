package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	// Agents below this confidence only report reasoning; they never act.
	AgentConfidenceThreshold float64 `envconfig:"AGENT_CONFIDENCE_THRESHOLD" default:"0.7"`

	// Minimum weighted similarity for a question to count as a duplicate.
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.7"`

	// Backfill worker poll interval in seconds. Zero disables the worker.
	WorkerPollSeconds int `envconfig:"WORKER_POLL_SECONDS" default:"30"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ASKHUB", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.AgentConfidenceThreshold < 0 || cfg.AgentConfidenceThreshold > 1 {
		return nil, fmt.Errorf("AGENT_CONFIDENCE_THRESHOLD must be in [0,1], got %v", cfg.AgentConfidenceThreshold)
	}
	if cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("SIMILARITY_THRESHOLD must be in [0,1], got %v", cfg.SimilarityThreshold)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
