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
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/patapancakes/expak/pakcache"
)

var extractCmd = &cobra.Command{
	Use:   "extract <dir>",
	Short: "Extract objects from the packages under dir",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().String("key", "", "content key to extract (hex)")
	extractCmd.Flags().Int64("size", 0, "decompressed size of --key")
	extractCmd.Flags().String("jobs", "", "path to a json file of keys and sizes to extract")
	extractCmd.Flags().String("outdir", "extracted", "path to output directory")
	extractCmd.Flags().Int("workers", 0, "number of extraction workers (default: number of cpus)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	keys, err := keysFromFlags(cmd)
	if err != nil {
		return err
	}

	err = os.MkdirAll(cfg.OutDir, 0755)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	c, err := openCache(cfg, logger, args[0])
	if err != nil {
		return err
	}

	defer c.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "Using %d extraction workers\n", cfg.Workers)

	return extractAll(c, keys, cfg.OutDir, cfg.Workers, logger)
}

func keysFromFlags(cmd *cobra.Command) (Keys, error) {
	jobs, _ := cmd.Flags().GetString("jobs")
	key, _ := cmd.Flags().GetString("key")
	size, _ := cmd.Flags().GetInt64("size")

	switch {
	case jobs != "" && key != "":
		return nil, fmt.Errorf("--key and --jobs are mutually exclusive")
	case jobs != "":
		return readKeys(jobs)
	case key != "":
		k, err := parseKey(key)
		if err != nil {
			return nil, err
		}

		return Keys{k: size}, nil
	}

	return nil, fmt.Errorf("one of --key or --jobs is required")
}

// extractAll extracts every key into outdir. Missing keys are logged and skipped.
func extractAll(c *pakcache.Cache, keys Keys, outdir string, workers int, logger *slog.Logger) error {
	bar := progressbar.Default(int64(len(keys)), "Extracting")

	var g errgroup.Group
	g.SetLimit(workers)

	for _, key := range slices.Sorted(maps.Keys(keys)) {
		size := keys[key]

		g.Go(func() error {
			defer bar.Add(1)

			err := extractObject(c, key, size, filepath.Join(outdir, fmt.Sprintf("%016x.bin", key)))
			if errors.Is(err, pakcache.ErrNotFound) {
				logger.Warn("object not found", "key", fmt.Sprintf("0x%x", key))
				return nil
			}

			return err
		})
	}

	return g.Wait()
}

func extractObject(c *pakcache.Cache, key uint64, size int64, path string) error {
	data, err := c.ExtractObject(key, size)
	if err != nil {
		return fmt.Errorf("failed to extract object 0x%x: %w", key, err)
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	_, err = out.Write(data)
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to write data to output file: %w", err)
	}

	err = out.Sync()
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	err = out.Close()
	if err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	return nil
}
