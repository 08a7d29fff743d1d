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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Keys maps content keys to decompressed size hints.
type Keys map[uint64]int64

type KeyFile struct {
	Objects map[string]int64 `json:"objects"`
}

func readKeys(path string) (Keys, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keys file: %w", err)
	}

	defer file.Close()

	keys, err := keysFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read keys file: %w", err)
	}

	return keys, nil
}

func keysFromReader(r io.Reader) (Keys, error) {
	var keyfile KeyFile
	err := json.NewDecoder(r).Decode(&keyfile)
	if err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	keys := make(Keys)

	for key, size := range keyfile.Objects {
		k, err := parseKey(key)
		if err != nil {
			return nil, err
		}

		keys[k] = size
	}

	return keys, nil
}

// parseKey parses a hex content key, with or without a 0x prefix.
func parseKey(s string) (uint64, error) {
	k, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to decode key %q: %w", s, err)
	}

	return k, nil
}
