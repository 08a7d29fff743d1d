/*
	Copyright (C) 2024  Pancakes <patapancakes@pagefault.games>

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/patapancakes/expak/pakcache/oodle"
)

// Config is read from flags, EXPAK_* environment variables and an
// optional config file, in that order of precedence.
type Config struct {
	CodecLibrary string `mapstructure:"codec_library"`
	Strict       bool   `mapstructure:"strict"`
	Workers      int    `mapstructure:"workers"`
	LogLevel     string `mapstructure:"log_level"`
	OutDir       string `mapstructure:"outdir"`
}

// config key -> flag name
var configFlags = map[string]string{
	"codec_library": "codec-library",
	"strict":        "strict",
	"workers":       "workers",
	"log_level":     "log-level",
	"outdir":        "outdir",
}

func loadConfig(flags *pflag.FlagSet, path string) (Config, error) {
	v := viper.New()

	v.SetDefault("codec_library", oodle.DefaultLibrary)
	v.SetDefault("strict", false)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("log_level", "info")
	v.SetDefault("outdir", "extracted")

	v.SetEnvPrefix("EXPAK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		err := v.ReadInConfig()
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for key, name := range configFlags {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}

		err := v.BindPFlag(key, f)
		if err != nil {
			return Config{}, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}

	return cfg, nil
}
