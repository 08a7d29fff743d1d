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
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecompressRaw(t *testing.T) {
	src := buildStream(t, false, []testBlock{
		{Raw, []byte("HELLO")},
		{Raw, []byte("WORLD")},
	}, []testBlock{
		{Raw, []byte("HELLOW")},
	})

	out, err := Decompressor{}.Decompress(src, 16, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("HELLOWORLDHELLOW"), out)
}

func TestDecompressShortStream(t *testing.T) {
	src := buildStream(t, false, []testBlock{{Raw, []byte("SHORT")}})

	out, err := Decompressor{}.Decompress(src, 64, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("SHORT"), out)
	assert.Len(t, out, 5)
}

func TestDecompressUnknownMethod(t *testing.T) {
	src := buildStream(t, false, []testBlock{
		{Method(0xF), bytes.Repeat([]byte{0xEE}, 10)},
		{Raw, []byte("DATA")},
	})

	out, err := Decompressor{}.Decompress(src, 4, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("DATA"), out)

	_, err = Decompressor{Strict: true}.Decompress(src, 4, false)
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestDecompressAlignedCommands(t *testing.T) {
	src := buildStream(t, true, []testBlock{
		{Raw, []byte("ABC")},
		{Raw, []byte("DEFGH")},
		{Raw, []byte("I")},
	})

	out, err := Decompressor{}.Decompress(src, 9, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABCDEFGHI"), out)

	// reading an aligned stream unaligned picks up the padding
	out, err = Decompressor{}.Decompress(src, 9, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABC\x00DEFGH"), out)
}

func TestDecompressLZ4(t *testing.T) {
	plain := bytes.Repeat([]byte("lz4 block data "), 64)

	compressed := make([]byte, lz4.CompressBlockBound(len(plain)))
	n, err := lz4.CompressBlock(plain, compressed, nil)
	require.NoError(t, err)
	require.NotZero(t, n)

	src := buildStream(t, false, []testBlock{
		{Raw, []byte("head")},
	}, []testBlock{
		{LZ4, compressed[:n]},
	})

	out, err := Decompressor{}.Decompress(src, 4+len(plain), false)
	require.NoError(t, err)
	assert.Equal(t, append([]byte("head"), plain...), out)
}

func TestDecompressCodec(t *testing.T) {
	sized := make([]byte, 4, 6)
	binary.LittleEndian.PutUint32(sized, 5)
	sized = append(sized, 'x', 'y')

	src := buildStream(t, false, []testBlock{
		{CodecSized, sized},
		{Codec, []byte("z")},
	})

	d := Decompressor{Codec: repeatCodec{}}

	out, err := d.Decompress(src, 5+CodecChunkSize+10, false)
	require.NoError(t, err)
	require.Len(t, out, 5+CodecChunkSize)
	assert.Equal(t, []byte("xyxyx"), out[:5])
	assert.Equal(t, bytes.Repeat([]byte("z"), CodecChunkSize), out[5:])
}

func TestDecompressCodecUnavailable(t *testing.T) {
	src := buildStream(t, false, []testBlock{
		{Codec, []byte("z")},
	})

	_, err := Decompressor{}.Decompress(src, 16, false)
	require.ErrorIs(t, err, ErrCodecUnavailable)
	require.ErrorIs(t, err, ErrOpen)
}

func TestDecompressTruncated(t *testing.T) {
	src := buildStream(t, false, []testBlock{
		{Raw, []byte("0123456789")},
	})

	out, err := Decompressor{}.Decompress(src[:len(src)-1], 10, false)
	require.ErrorIs(t, err, ErrTruncatedStream)
	assert.Nil(t, out)

	// not even a block header
	_, err = Decompressor{}.Decompress(src[:BlockHeaderSize-1], 10, false)
	require.ErrorIs(t, err, ErrTruncatedStream)
}

func TestDecompressCorrupt(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
		size int
	}{
		{
			name: "raw overflow",
			src:  buildStream(t, false, []testBlock{{Raw, []byte("too long")}}),
			size: 4,
		},
		{
			name: "sized codec overflow",
			src:  buildStream(t, false, []testBlock{{CodecSized, []byte{0xFF, 0, 0, 0, 1}}}),
			size: 4,
		},
		{
			name: "sized codec without length",
			src:  buildStream(t, false, []testBlock{{CodecSized, []byte{1, 2}}}),
			size: 4,
		},
		{
			name: "too many commands",
			src: func() []byte {
				b := make([]byte, BlockHeaderSize)
				binary.LittleEndian.PutUint32(b, BlockCommands+1)
				return b
			}(),
			size: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decompressor{Codec: repeatCodec{}}.Decompress(tt.src, tt.size, false)
			require.ErrorIs(t, err, ErrCorruptBlock)
			assert.Nil(t, out)
		})
	}
}

func TestDecompressUnknownSize(t *testing.T) {
	_, err := Decompressor{}.Decompress([]byte{}, 0, false)
	require.ErrorIs(t, err, ErrUnknownSize)
}

func TestSpanReader(t *testing.T) {
	r := spanReader{buf: make([]byte, 300)}

	b, ok := r.span(3)
	require.True(t, ok)
	assert.Len(t, b, 3)

	r.align(BlockAlignment)
	assert.Equal(t, 128, r.pos)

	r.align(BlockAlignment)
	assert.Equal(t, 128, r.pos)

	_, ok = r.span(200)
	assert.False(t, ok)
	assert.Equal(t, 128, r.pos)

	r.skip(1000)
	assert.Equal(t, 300, r.pos)
}
