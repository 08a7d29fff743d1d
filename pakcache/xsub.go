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
	"encoding/binary"
	"fmt"
	"io"
)

const (
	XSUBHeaderSize    = 2024
	XSUBHashEntrySize = 20
)

type xsubHeader struct {
	Magic         uint32
	Unknown1      uint16
	Version       uint16
	Unknown       uint64
	Type          uint64
	Size          uint64
	UnknownHashes [1896]byte
	FileCount     int64
	DataOffset    int64
	DataSize      int64
	HashCount     int64
	HashOffset    int64
	HashSize      int64
	Unknown3      int64
	UnknownOffset int64
	Unknown4      int64
	IndexCount    int64
	IndexOffset   int64
	IndexSize     int64
}

func (h xsubHeader) summary() Header {
	return Header{
		Magic:       h.Magic,
		Version:     h.Version,
		FileCount:   uint64(h.FileCount),
		DataOffset:  uint64(h.DataOffset),
		DataSize:    uint64(h.DataSize),
		HashCount:   uint64(h.HashCount),
		HashOffset:  uint64(h.HashOffset),
		HashSize:    uint64(h.HashSize),
		IndexCount:  uint64(h.IndexCount),
		IndexOffset: uint64(h.IndexOffset),
		IndexSize:   uint64(h.IndexSize),
	}
}

// PackedLayout describes how an XSUB hash entry packs location and size
// into its 64 bit info field:
//
//	offset = (info >> OffsetShift) << OffsetScale
//	size   = (info >> SizeShift) & SizeMask
type PackedLayout struct {
	OffsetShift uint
	OffsetScale uint
	SizeShift   uint
	SizeMask    uint64

	// add the header data offset to the unpacked offset
	RelativeToData bool
}

var DefaultPackedLayout = PackedLayout{
	OffsetShift: 32,
	OffsetScale: 7,
	SizeShift:   1,
	SizeMask:    0x3FFFFFFF,
}

func (l PackedLayout) unpack(info uint64, dataOffset uint64) (uint64, uint64) {
	offset := (info >> l.OffsetShift) << l.OffsetScale
	if l.RelativeToData {
		offset += dataOffset
	}

	return offset, (info >> l.SizeShift) & l.SizeMask
}

// XSUBLoader loads .xsub packages. A zero Layout means DefaultPackedLayout.
type XSUBLoader struct {
	Layout PackedLayout
}

func (XSUBLoader) Extension() string {
	return ".xsub"
}

func (l XSUBLoader) LoadPackage(path string, index uint32) (Package, error) {
	layout := l.Layout
	if layout == (PackedLayout{}) {
		layout = DefaultPackedLayout
	}

	file, size, err := openPackage(path)
	if err != nil {
		return Package{}, err
	}

	defer file.Close()

	var raw xsubHeader
	err = binary.Read(file, binary.LittleEndian, &raw)
	if err != nil {
		return Package{}, fmt.Errorf("%w: failed to read header: %w", ErrInvalidHeader, err)
	}

	if raw.HashOffset < 0 || raw.HashCount < 0 || raw.DataOffset < 0 {
		return Package{}, fmt.Errorf("%w: negative offset or count", ErrInvalidHeader)
	}

	header := raw.summary()

	err = header.validate(size, XSUBHashEntrySize)
	if err != nil {
		return Package{}, err
	}

	_, err = file.Seek(raw.HashOffset, io.SeekStart)
	if err != nil {
		return Package{}, fmt.Errorf("failed to seek to hash table: %w", err)
	}

	entries, err := readHashTable(file, header.HashCount, XSUBHashEntrySize, func(b []byte) KeyedEntry {
		// the trailing uint32 (packed info ex) isn't needed to locate the object
		offset, size := layout.unpack(binary.LittleEndian.Uint64(b[8:]), header.DataOffset)

		return KeyedEntry{
			Key: binary.LittleEndian.Uint64(b[0:]),
			Entry: Entry{
				Package:        index,
				Offset:         offset,
				CompressedSize: size,
			},
		}
	})
	if err != nil {
		return Package{}, err
	}

	return Package{
		Path:    path,
		Index:   index,
		Header:  header,
		Entries: entries,
	}, nil
}
