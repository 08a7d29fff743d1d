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

package pakcache

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// PackageMagic is "KAPI" read as a little endian uint32.
const PackageMagic = 0x4950414b

// A Loader parses one package family.
type Loader interface {
	// Extension is the file extension handled, including the dot.
	Extension() string

	// LoadPackage parses the package at path. Entries are tagged with index.
	LoadPackage(path string, index uint32) (Package, error)
}

// Package is the result of parsing a single package file.
type Package struct {
	Path          string
	Index         uint32
	Header        Header
	AlignCommands bool
	Entries       []KeyedEntry
}

// Header is the part of a package header the index cares about.
type Header struct {
	Magic       uint32 `json:"magic"`
	Version     uint16 `json:"version"`
	FileCount   uint64 `json:"fileCount"`
	DataOffset  uint64 `json:"dataOffset"`
	DataSize    uint64 `json:"dataSize"`
	HashCount   uint64 `json:"hashCount"`
	HashOffset  uint64 `json:"hashOffset"`
	HashSize    uint64 `json:"hashSize"`
	IndexCount  uint64 `json:"indexCount"`
	IndexOffset uint64 `json:"indexOffset"`
	IndexSize   uint64 `json:"indexSize"`
}

func openPackage(path string) (*os.File, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w package file: %w", ErrOpen, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("%w package file: %w", ErrOpen, err)
	}

	return file, info.Size(), nil
}

// validate checks the magic and that the whole hash table lies inside the file.
func (h Header) validate(size int64, recordSize uint64) error {
	if h.Magic != PackageMagic {
		return fmt.Errorf("%w: bad magic 0x%08x", ErrInvalidHeader, h.Magic)
	}

	if h.HashOffset >= uint64(size) {
		return fmt.Errorf("%w: hash offset 0x%x past end of file (0x%x)", ErrInvalidHeader, h.HashOffset, size)
	}

	if h.HashCount > (uint64(size)-h.HashOffset)/recordSize {
		return fmt.Errorf("%w: %d hash entries don't fit in file", ErrInvalidHeader, h.HashCount)
	}

	return nil
}

// readHashTable reads count records of recordSize bytes from the current
// position of r, decoding each with decode.
func readHashTable(r io.Reader, count uint64, recordSize int, decode func([]byte) KeyedEntry) ([]KeyedEntry, error) {
	br := bufio.NewReader(r)

	entries := make([]KeyedEntry, 0, count)
	b := make([]byte, recordSize)
	for i := range count {
		_, err := io.ReadFull(br, b)
		if err != nil {
			return nil, fmt.Errorf("failed to read hash entry %d: %w", i, err)
		}

		entries = append(entries, decode(b))
	}

	return entries, nil
}
