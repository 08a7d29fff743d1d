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
	"errors"
	"fmt"
)

var (
	// ErrOpen is returned when an archive or the codec library can't be opened.
	ErrOpen = errors.New("failed to open")

	// ErrInvalidHeader marks an archive whose magic or offsets don't check out.
	// Load skips such archives.
	ErrInvalidHeader = errors.New("invalid package header")

	ErrNotFound    = errors.New("object not found")
	ErrUnknownSize = errors.New("decompressed size unknown")

	// ErrTruncatedStream is returned when a block runs past the end of the
	// compressed input.
	ErrTruncatedStream = errors.New("truncated compressed stream")

	ErrUnsupportedMethod = errors.New("unsupported compression method")
	ErrCorruptBlock      = errors.New("corrupt compression block")
)

// ErrCodecUnavailable is returned for codec blocks when no codec library is loaded.
var ErrCodecUnavailable = fmt.Errorf("%w codec library", ErrOpen)
