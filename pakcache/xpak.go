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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	XPAKHeaderSize    = 120
	XPAKHashEntrySize = 24

	// XPAKSplitVersion packages have 288 reserved bytes after the first
	// 24 header bytes. Their block commands are also padded to 4 bytes.
	XPAKSplitVersion = 0xD

	xpakHeadSize     = 24
	xpakReservedSize = 288

	// some newer packages set 0x80 in the top byte of the size
	xpakSizeMask = 0x00FFFFFFFFFFFFFF
)

type xpakHeader struct {
	Magic         uint32
	Unknown1      uint16
	Version       uint16
	Unknown2      uint64
	Size          uint64
	FileCount     uint64
	DataOffset    uint64
	DataSize      uint64
	HashCount     uint64
	HashOffset    uint64
	HashSize      uint64
	Unknown3      uint64
	UnknownOffset uint64
	Unknown4      uint64
	IndexCount    uint64
	IndexOffset   uint64
	IndexSize     uint64
}

func (h xpakHeader) summary() Header {
	return Header{
		Magic:       h.Magic,
		Version:     h.Version,
		FileCount:   h.FileCount,
		DataOffset:  h.DataOffset,
		DataSize:    h.DataSize,
		HashCount:   h.HashCount,
		HashOffset:  h.HashOffset,
		HashSize:    h.HashSize,
		IndexCount:  h.IndexCount,
		IndexOffset: h.IndexOffset,
		IndexSize:   h.IndexSize,
	}
}

// XPAKLoader loads .xpak packages.
type XPAKLoader struct{}

func (XPAKLoader) Extension() string {
	return ".xpak"
}

func (XPAKLoader) LoadPackage(path string, index uint32) (Package, error) {
	file, size, err := openPackage(path)
	if err != nil {
		return Package{}, err
	}

	defer file.Close()

	header, err := readXPAKHeader(file)
	if err != nil {
		return Package{}, err
	}

	err = header.validate(size, XPAKHashEntrySize)
	if err != nil {
		return Package{}, err
	}

	_, err = file.Seek(int64(header.HashOffset), io.SeekStart)
	if err != nil {
		return Package{}, fmt.Errorf("failed to seek to hash table: %w", err)
	}

	entries, err := readHashTable(file, header.HashCount, XPAKHashEntrySize, func(b []byte) KeyedEntry {
		return KeyedEntry{
			Key: binary.LittleEndian.Uint64(b[0:]),
			Entry: Entry{
				Package:        index,
				Offset:         header.DataOffset + binary.LittleEndian.Uint64(b[8:]),
				CompressedSize: binary.LittleEndian.Uint64(b[16:]) & xpakSizeMask,
			},
		}
	})
	if err != nil {
		return Package{}, err
	}

	return Package{
		Path:          path,
		Index:         index,
		Header:        header,
		AlignCommands: header.Version == XPAKSplitVersion,
		Entries:       entries,
	}, nil
}

// readXPAKHeader reads the header from the start of r, handling the split layout.
func readXPAKHeader(r io.ReadSeeker) (Header, error) {
	b := make([]byte, XPAKHeaderSize)

	_, err := io.ReadFull(r, b)
	if err != nil {
		return Header{}, fmt.Errorf("%w: failed to read header: %w", ErrInvalidHeader, err)
	}

	if binary.LittleEndian.Uint16(b[6:]) == XPAKSplitVersion {
		_, err = r.Seek(xpakHeadSize+xpakReservedSize, io.SeekStart)
		if err != nil {
			return Header{}, fmt.Errorf("failed to seek past reserved header bytes: %w", err)
		}

		_, err = io.ReadFull(r, b[xpakHeadSize:])
		if err != nil {
			return Header{}, fmt.Errorf("%w: failed to read header: %w", ErrInvalidHeader, err)
		}
	}

	var h xpakHeader
	err = binary.Read(bytes.NewReader(b), binary.LittleEndian, &h)
	if err != nil {
		return Header{}, fmt.Errorf("failed to decode header: %w", err)
	}

	return h.summary(), nil
}
