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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testBlock struct {
	Method Method
	Data   []byte
}

// buildStream encodes groups of blocks, one block header per group.
func buildStream(tb testing.TB, align bool, groups ...[]testBlock) []byte {
	tb.Helper()

	var buf bytes.Buffer
	for i, group := range groups {
		require.LessOrEqual(tb, len(group), BlockCommands)

		header := make([]byte, BlockHeaderSize)
		binary.LittleEndian.PutUint32(header, uint32(len(group)))
		for j, b := range group {
			binary.LittleEndian.PutUint32(header[4+j*4:], uint32(b.Method)<<24|uint32(len(b.Data)))
		}

		buf.Write(header)

		for _, b := range group {
			buf.Write(b.Data)

			if align {
				buf.Write(make([]byte, (len(b.Data)+3)&^3-len(b.Data)))
			}
		}

		// the last group is left unpadded
		if i != len(groups)-1 {
			buf.Write(make([]byte, (buf.Len()+BlockAlignment-1)&^(BlockAlignment-1)-buf.Len()))
		}
	}

	return buf.Bytes()
}

type testObject struct {
	Key  uint64
	Data []byte

	// or'd into the stored size
	SizeFlags uint64
}

func buildXPAK(tb testing.TB, version uint16, objects ...testObject) []byte {
	tb.Helper()

	headerSize := XPAKHeaderSize
	if version == XPAKSplitVersion {
		headerSize += xpakReservedSize
	}

	var data, hashes bytes.Buffer
	for _, o := range objects {
		entry := make([]byte, XPAKHashEntrySize)
		binary.LittleEndian.PutUint64(entry[0:], o.Key)
		binary.LittleEndian.PutUint64(entry[8:], uint64(data.Len()))
		binary.LittleEndian.PutUint64(entry[16:], uint64(len(o.Data))|o.SizeFlags)
		hashes.Write(entry)

		data.Write(o.Data)
	}

	h := xpakHeader{
		Magic:      PackageMagic,
		Version:    version,
		FileCount:  uint64(len(objects)),
		DataOffset: uint64(headerSize),
		DataSize:   uint64(data.Len()),
		HashCount:  uint64(len(objects)),
		HashOffset: uint64(headerSize + data.Len()),
		HashSize:   uint64(hashes.Len()),
	}

	var header bytes.Buffer
	require.NoError(tb, binary.Write(&header, binary.LittleEndian, h))

	var out bytes.Buffer
	if version == XPAKSplitVersion {
		out.Write(header.Bytes()[:xpakHeadSize])
		out.Write(bytes.Repeat([]byte{0xCC}, xpakReservedSize))
		out.Write(header.Bytes()[xpakHeadSize:])
	} else {
		out.Write(header.Bytes())
	}

	out.Write(data.Bytes())
	out.Write(hashes.Bytes())

	return out.Bytes()
}

const xsubTestDataOffset = 2048

func buildXSUB(tb testing.TB, objects ...testObject) []byte {
	tb.Helper()

	var data, hashes bytes.Buffer
	for _, o := range objects {
		offset := uint64(xsubTestDataOffset + data.Len())

		entry := make([]byte, XSUBHashEntrySize)
		binary.LittleEndian.PutUint64(entry[0:], o.Key)
		binary.LittleEndian.PutUint64(entry[8:], (offset>>7)<<32|uint64(len(o.Data))<<1|1)
		binary.LittleEndian.PutUint32(entry[16:], 0xDEADBEEF)
		hashes.Write(entry)

		data.Write(o.Data)
		data.Write(make([]byte, (data.Len()+127)&^127-data.Len()))
	}

	h := xsubHeader{
		Magic:      PackageMagic,
		Version:    1,
		FileCount:  int64(len(objects)),
		DataOffset: xsubTestDataOffset,
		DataSize:   int64(data.Len()),
		HashCount:  int64(len(objects)),
		HashOffset: int64(xsubTestDataOffset + data.Len()),
		HashSize:   int64(hashes.Len()),
	}

	var out bytes.Buffer
	require.NoError(tb, binary.Write(&out, binary.LittleEndian, h))
	out.Write(make([]byte, xsubTestDataOffset-out.Len()))
	out.Write(data.Bytes())
	out.Write(hashes.Bytes())

	return out.Bytes()
}

func writeFile(tb testing.TB, dir string, name string, data []byte) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(tb, os.WriteFile(path, data, 0644))

	return path
}

// repeatCodec fills the output by repeating its input.
type repeatCodec struct{}

func (repeatCodec) Decompress(src []byte, dst []byte) (int, error) {
	for i := range dst {
		dst[i] = src[i%len(src)]
	}

	return len(dst), nil
}

func newTestCache(opts ...Option) *Cache {
	return New(append([]Option{WithCodec(repeatCodec{})}, opts...)...)
}
