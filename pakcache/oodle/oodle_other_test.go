//go:build !windows

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

	"github.com/stretchr/testify/require"
)

func TestOpenUnavailable(t *testing.T) {
	l, err := Open(DefaultLibrary)
	require.ErrorIs(t, err, ErrUnavailable)
	require.Nil(t, l)

	l, err = OpenBundled()
	require.ErrorIs(t, err, ErrUnavailable)
	require.Nil(t, l)
}
