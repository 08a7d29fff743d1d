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

// Package oodle holds a process-wide handle on the Oodle decompression library.
package oodle

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// DefaultLibrary is the library name shipped with the games.
const DefaultLibrary = "oo2core_6_win64.dll"

// Bundled is the name reported by OpenBundled.
const Bundled = "go-oodle"

var ErrUnavailable = errors.New("oodle library unavailable")

// backend does the actual decoding for a Library.
type backend interface {
	decompress(src []byte, dst []byte) (int, error)
	release() error
}

// Library is a loaded Oodle library. It must not be closed while
// Decompress calls are in flight.
type Library struct {
	name    string
	backend backend
	closed  atomic.Bool
}

// Open loads the named library. Blocks are decoded by that library's
// OodleLZ_Decompress export until Close.
func Open(name string) (*Library, error) {
	b, err := loadLibrary(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	return &Library{name: name, backend: b}, nil
}

// OpenBundled uses the library managed by go-oodle instead of a named one.
func OpenBundled() (*Library, error) {
	b, err := loadBundled()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", Bundled, err)
	}

	return &Library{name: Bundled, backend: b}, nil
}

func (l *Library) Name() string {
	return l.name
}

// Decompress decodes src into exactly len(dst) bytes.
func (l *Library) Decompress(src []byte, dst []byte) (int, error) {
	if l.closed.Load() {
		return 0, ErrUnavailable
	}

	if len(src) == 0 || len(dst) == 0 {
		return 0, fmt.Errorf("failed to decompress: empty buffer")
	}

	n, err := l.backend.decompress(src, dst)
	if err != nil {
		return 0, err
	}

	if n != len(dst) {
		return n, fmt.Errorf("failed to decompress: got %d bytes, want %d", n, len(dst))
	}

	return n, nil
}

// Close releases the library. Calling it more than once is harmless.
func (l *Library) Close() error {
	if l.closed.Swap(true) {
		return nil
	}

	return l.backend.release()
}
