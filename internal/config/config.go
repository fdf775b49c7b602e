// Package config loads the settings of the demo server from the
// environment, with an optional .env file underneath.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the typed configuration of the demo server.
type Config struct {
	App AppConfig
}

type AppConfig struct {
	Name      string
	Env       string // local | production | testing
	Port      string
	Debug     bool
	FakeClock bool // serve a fixed time instead of the wall clock
}

// Addr returns the listen address for App.Port.
func (c *Config) Addr() string {
	return ":" + c.App.Port
}

// Load reads the given env files (default ".env") and populates a Config.
// Variables already set in the environment win over the files. Missing
// files are not an error.
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}

	fileVals := map[string]string{}
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for k, v := range vals {
			fileVals[k] = v
		}
	}

	l := loader{file: fileVals}
	return &Config{
		App: AppConfig{
			Name:      l.env("APP_NAME", "depends-demo"),
			Env:       l.env("APP_ENV", "local"),
			Port:      l.env("APP_PORT", "8080"),
			Debug:     l.envBool("APP_DEBUG", false),
			FakeClock: l.envBool("APP_FAKE_CLOCK", false),
		},
	}, nil
}

type loader struct {
	file map[string]string
}

func (l loader) env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := l.file[key]; v != "" {
		return v
	}
	return fallback
}

func (l loader) envBool(key string, fallback bool) bool {
	v := l.env(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
