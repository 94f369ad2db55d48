/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package garage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/tomoncle/garage/database"
	"github.com/tomoncle/garage/utils"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration file.
type Config struct {
	Database database.Config `yaml:"database"`
	Query    QueryConfig     `yaml:"query"`
	Log      LogConfig       `yaml:"log"`
}

// QueryConfig tunes the vehicle query engine. MaxPageSize 0 leaves page
// sizes unbounded.
type QueryConfig struct {
	MaxPageSize int `yaml:"max_page_size"`
}

// LogConfig selects the console log level and format ("text" or "json").
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Database: *database.DefaultConfig(),
		Log: LogConfig{
			Level:  utils.EnvDefaultString("LOG_LEVEL", "info"),
			Format: utils.EnvDefaultString("CONSOLE_LOG_FORMAT", "text"),
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. An empty path returns
// the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := decodeConfig(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeConfig(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c.Query.MaxPageSize < 0 {
		return fmt.Errorf("query.max_page_size must not be negative, got %d", c.Query.MaxPageSize)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ApplyLogging configures the console loggers from c.Log.
func (c *Config) ApplyLogging() {
	utils.ConfigureConsoleLogFormat(c.Log.Format)
	utils.ConfigureLogLevel(c.Log.Level)
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are named) without overriding variables already set. Missing files are
// skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}
