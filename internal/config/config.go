// Copyright 2024 The mbuild Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads optional engine-wide tuning from a TOML file. It
// never describes the build graph itself: that stays programmatic.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Engine holds the fields a caller can externalize instead of setting
// them on the facade directly.
type Engine struct {
	MaxThreads       int      `toml:"max_threads"`
	DBPath           string   `toml:"db_path"`
	HeaderExtensions []string `toml:"header_extensions"`
}

// Config is the top-level shape of the TOML document.
type Config struct {
	Engine Engine `toml:"engine"`
}

// Load reads and decodes path. A missing file is not an error: it
// returns the zero Config, meaning "use the engine's built-in
// defaults". A file that exists but fails to parse is returned as an
// error, since a configuration the caller explicitly wrote and got
// wrong should not be silently ignored the way a merely-absent or
// corrupt dependency database is.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}
