//go:build windows

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

package oodle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingLibrary(t *testing.T) {
	_, err := Open("missing-codec.dll")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenResolvesDecoder(t *testing.T) {
	// kernel32 always loads but has no decoder export
	_, err := Open("kernel32.dll")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), decodeProc)
}

func TestOpenNamedLibrary(t *testing.T) {
	l, err := Open(DefaultLibrary)
	if err != nil {
		t.Skipf("%s not installed: %v", DefaultLibrary, err)
	}

	defer l.Close()

	require.Equal(t, DefaultLibrary, l.Name())

	b, ok := l.backend.(*dllBackend)
	require.True(t, ok)
	assert.Equal(t, DefaultLibrary, b.dll.Name)
	assert.Equal(t, decodeProc, b.proc.Name)
}
