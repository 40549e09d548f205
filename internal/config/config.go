package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port      string `yaml:"port"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"server"`
	Game struct {
		QuestionCount  int    `yaml:"question_count"`
		QuestionTime   string `yaml:"question_time"`
		RevealPause    string `yaml:"reveal_pause"`
		GameOverPause  string `yaml:"game_over_pause"`
		BasePoints     int    `yaml:"base_points"`
		BonusPerSecond int    `yaml:"bonus_per_second"`
	} `yaml:"game"`
	Trivia struct {
		Provider   string `yaml:"provider"` // opentdb (default), postgres, static
		OpenTDBURL string `yaml:"opentdb_url"`
		Timeout    string `yaml:"timeout"`
		PoolTTL    string `yaml:"pool_ttl"`
	} `yaml:"trivia"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path. A missing file yields the zero config so
// the server can run on defaults alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DurationOr parses a duration string or returns the fallback if empty/invalid.
func DurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
