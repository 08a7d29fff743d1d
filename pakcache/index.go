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
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Entry locates one compressed object inside a package.
type Entry struct {
	Package          uint32 `json:"package"`
	Offset           uint64 `json:"offset"`
	CompressedSize   uint64 `json:"compressedSize"`
	UncompressedSize uint64 `json:"uncompressedSize"` // 0 if the package doesn't record it
}

// KeyedEntry is an entry as it appears in a package hash table.
type KeyedEntry struct {
	Key uint64 `json:"key"`
	Entry
}

// Archive is a successfully loaded package file.
type Archive struct {
	Path string `json:"path"`

	// newer packages pad every block command to 4 bytes
	AlignCommands bool `json:"alignCommands"`
}

// Index maps content keys to entries. The first package to provide a key wins.
type Index struct {
	archives []Archive
	entries  map[uint64]Entry
}

func NewIndex() *Index {
	return &Index{entries: make(map[uint64]Entry)}
}

// Next returns the package number the next added package will get.
func (idx *Index) Next() uint32 {
	return uint32(len(idx.archives))
}

// Add appends a loaded package and merges its entries. It returns how many
// entries were dropped because their key was already present.
func (idx *Index) Add(pkg Package) (int, error) {
	if pkg.Index != idx.Next() {
		return 0, fmt.Errorf("package %s has index %d, expected %d", pkg.Path, pkg.Index, idx.Next())
	}

	idx.archives = append(idx.archives, Archive{Path: pkg.Path, AlignCommands: pkg.AlignCommands})

	var dropped int
	for _, e := range pkg.Entries {
		if _, ok := idx.entries[e.Key]; ok {
			dropped++
			continue
		}

		e.Entry.Package = pkg.Index
		idx.entries[e.Key] = e.Entry
	}

	return dropped, nil
}

func (idx *Index) Lookup(key uint64) (Entry, Archive, bool) {
	e, ok := idx.entries[key]
	if !ok {
		return Entry{}, Archive{}, false
	}

	// entries are only ever tagged with indexes of added packages
	return e, idx.archives[e.Package], true
}

func (idx *Index) Len() int {
	return len(idx.entries)
}

// Archives returns the package paths in load order.
func (idx *Index) Archives() []string {
	paths := make([]string, len(idx.archives))
	for i, a := range idx.archives {
		paths[i] = a.Path
	}

	return paths
}

// All yields every entry in key order.
func (idx *Index) All() iter.Seq2[uint64, Entry] {
	return func(yield func(uint64, Entry) bool) {
		for _, k := range slices.Sorted(maps.Keys(idx.entries)) {
			if !yield(k, idx.entries[k]) {
				return
			}
		}
	}
}
