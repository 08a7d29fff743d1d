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

// Package pakcache indexes game package files and extracts the objects
// stored in them by content key.
package pakcache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/patapancakes/expak/pakcache/oodle"
)

// Cache is a read-only content addressed view over a set of packages.
// ExtractObject may be called concurrently; Load excludes extraction while it runs.
type Cache struct {
	mu    sync.RWMutex
	index *Index
	ready atomic.Bool

	loaders      map[string]Loader
	decompressor Decompressor
	library      *oodle.Library
	libraryName  string

	logger   *slog.Logger
	progress func(path string, err error)
}

type Option func(*Cache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithCodecLibrary sets the name of the Oodle library loaded by New.
// An empty name uses the library bundled with go-oodle.
func WithCodecLibrary(name string) Option {
	return func(c *Cache) {
		c.libraryName = name
	}
}

// WithCodec uses codec for codec blocks instead of loading a library.
func WithCodec(codec BlockCodec) Option {
	return func(c *Cache) {
		c.decompressor.Codec = codec
	}
}

// WithStrict makes extraction fail on unknown compression methods.
func WithStrict(strict bool) Option {
	return func(c *Cache) {
		c.decompressor.Strict = strict
	}
}

// WithLoaders replaces the default package loaders.
func WithLoaders(loaders ...Loader) Option {
	return func(c *Cache) {
		c.loaders = make(map[string]Loader)
		for _, l := range loaders {
			c.loaders[strings.ToLower(l.Extension())] = l
		}
	}
}

// WithProgress calls fn after every package Load tries, with the load error if any.
func WithProgress(fn func(path string, err error)) Option {
	return func(c *Cache) {
		c.progress = fn
	}
}

// New creates an empty cache and loads the codec library.
// A missing library isn't fatal, only codec blocks will fail to extract.
func New(opts ...Option) *Cache {
	c := &Cache{
		index:       NewIndex(),
		libraryName: oodle.DefaultLibrary,
	}

	WithLoaders(XPAKLoader{}, XSUBLoader{})(c)

	for _, opt := range opts {
		opt(c)
	}

	if c.decompressor.Codec == nil {
		lib, err := openLibrary(c.libraryName)
		if err != nil {
			c.log().Warn("codec library unavailable", "library", c.libraryName, "error", err)
		} else {
			c.library = lib
			c.decompressor.Codec = lib
		}
	}

	return c
}

func openLibrary(name string) (*oodle.Library, error) {
	if name == "" {
		return oodle.OpenBundled()
	}

	return oodle.Open(name)
}

func (c *Cache) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return c.logger
}

// Close releases the codec library. No extraction may run concurrently.
func (c *Cache) Close() error {
	if c.library == nil {
		return nil
	}

	return c.library.Close()
}

// Load indexes every package under basePath, replacing the current index.
// Packages that fail to load are logged and skipped. If basePath can't be
// walked the current index and ready state are left untouched.
func (c *Cache) Load(basePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var paths []string
	err := filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == basePath {
				return err
			}

			c.log().Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if _, ok := c.loaders[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%w package directory: %w", ErrOpen, err)
	}

	index := NewIndex()
	for _, path := range paths {
		err := c.loadPackage(index, path)
		if err != nil {
			c.log().Warn("skipping package", "path", path, "error", err)
		}

		if c.progress != nil {
			c.progress(path, err)
		}
	}

	c.index = index
	c.ready.Store(true)

	c.log().Info("package cache ready", "packages", len(index.archives), "objects", index.Len())

	return nil
}

func (c *Cache) loadPackage(index *Index, path string) error {
	loader := c.loaders[strings.ToLower(filepath.Ext(path))]

	pkg, err := loader.LoadPackage(path, index.Next())
	if err != nil {
		return err
	}

	dropped, err := index.Add(pkg)
	if err != nil {
		return err
	}

	c.log().Debug("loaded package", "path", path, "version", pkg.Header.Version, "entries", len(pkg.Entries), "duplicates", dropped)

	return nil
}

// Ready reports whether a Load has completed.
func (c *Cache) Ready() bool {
	return c.ready.Load()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.index.Len()
}

// Archives returns the loaded package paths in load order.
func (c *Cache) Archives() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.index.Archives()
}

func (c *Cache) Lookup(key uint64) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, _, ok := c.index.Lookup(key)

	return e, ok
}

// Entries returns a copy of the index in key order.
func (c *Cache) Entries() []KeyedEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]KeyedEntry, 0, c.index.Len())
	for k, e := range c.index.All() {
		entries = append(entries, KeyedEntry{Key: k, Entry: e})
	}

	return entries
}

// ExtractObject reads and decompresses the object stored under key.
// sizeHint is the decompressed size; values <= 0 fall back to the size
// recorded in the package, which most packages don't have.
func (c *Cache) ExtractObject(key uint64, sizeHint int64) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, archive, ok := c.index.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: 0x%x", ErrNotFound, key)
	}

	size := entry.UncompressedSize
	if sizeHint > 0 {
		size = uint64(sizeHint)
	}

	if size == 0 {
		return nil, fmt.Errorf("%w: 0x%x", ErrUnknownSize, key)
	}

	if size > math.MaxInt {
		return nil, fmt.Errorf("%w: 0x%x is too large", ErrCorruptBlock, size)
	}

	src, err := readSpan(archive.Path, entry.Offset, entry.CompressedSize)
	if err != nil {
		return nil, err
	}

	data, err := c.decompressor.Decompress(src, int(size), archive.AlignCommands)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress object 0x%x: %w", key, err)
	}

	return data, nil
}

// readSpan reads length bytes at offset of the file at path.
func readSpan(path string, offset uint64, length uint64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w package file: %w", ErrOpen, err)
	}

	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w package file: %w", ErrOpen, err)
	}

	if offset > uint64(info.Size()) || length > uint64(info.Size())-offset {
		return nil, fmt.Errorf("%w: 0x%x bytes at 0x%x past end of %s", ErrTruncatedStream, length, offset, path)
	}

	b := make([]byte, length)
	_, err = file.ReadAt(b, int64(offset))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", ErrTruncatedStream, err)
		}

		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return b, nil
}
