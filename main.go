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
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/patapancakes/expak/pakcache"
	"github.com/patapancakes/expak/pakcache/oodle"
)

var rootCmd = &cobra.Command{
	Use:   "expak",
	Short: "Index and extract objects from xpak/xsub packages",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "expak by Pancakes (patapancakes@pagefault.games)\n")
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to config file")
	rootCmd.PersistentFlags().String("codec-library", oodle.DefaultLibrary, "name of the oodle library to load (empty uses the go-oodle bundled library)")
	rootCmd.PersistentFlags().Bool("strict", false, "fail on unknown compression methods")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(listCmd, inspectCmd, extractCmd)
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// setup reads the config and builds the logger for cmd.
func setup(cmd *cobra.Command) (Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := loadConfig(cmd.Flags(), path)
	if err != nil {
		return cfg, nil, err
	}

	var level slog.Level
	err = level.UnmarshalText([]byte(cfg.LogLevel))
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return cfg, logger, nil
}

// openCache creates a cache and loads every package under dir.
func openCache(cfg Config, logger *slog.Logger, dir string) (*pakcache.Cache, error) {
	bar := progressbar.Default(-1, "Indexing")

	c := pakcache.New(
		pakcache.WithLogger(logger),
		pakcache.WithCodecLibrary(cfg.CodecLibrary),
		pakcache.WithStrict(cfg.Strict),
		pakcache.WithProgress(func(path string, err error) {
			bar.Add(1)
		}),
	)

	err := c.Load(dir)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	bar.Finish()

	return c, nil
}
