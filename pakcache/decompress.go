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

	"github.com/pierrec/lz4/v4"
)

type Method uint8

const (
	Raw        Method = 0x0
	LZ4        Method = 0x3
	Codec      Method = 0x6 // decompressed size implied by the budget, at most CodecChunkSize
	CodecSized Method = 0x8 // first 4 bytes of the block hold the decompressed size
)

const (
	BlockCommands   = 30
	BlockHeaderSize = 4 + BlockCommands*4

	// block headers start on 128 byte boundaries
	BlockAlignment = 0x80

	CodecChunkSize = 262112
)

// BlockCodec is a whole-block decompressor such as Oodle.
// Decompress fills dst from src and returns the number of bytes written.
type BlockCodec interface {
	Decompress(src []byte, dst []byte) (int, error)
}

// Decompressor reassembles an object from its compressed block stream.
type Decompressor struct {
	// Codec handles Codec and CodecSized blocks. Those blocks fail with
	// ErrCodecUnavailable when it's nil.
	Codec BlockCodec

	// Strict rejects unknown methods. Otherwise their blocks are skipped
	// without producing output, as the game does.
	Strict bool
}

// Decompress decodes src into a buffer allocated at size bytes and returns it
// trimmed to the bytes actually written, so a stream that ends early yields a
// slice shorter than size. alignCommands pads every command's input to 4
// bytes. No partial output is returned on error.
func (d Decompressor) Decompress(src []byte, size int, alignCommands bool) ([]byte, error) {
	if size <= 0 {
		return nil, ErrUnknownSize
	}

	out := make([]byte, size)
	r := spanReader{buf: src}

	var written int
	for r.pos < len(r.buf) {
		header, ok := r.span(BlockHeaderSize)
		if !ok {
			return nil, fmt.Errorf("%w: block header at 0x%x", ErrTruncatedStream, r.pos)
		}

		count := binary.LittleEndian.Uint32(header) & 0xFFFFFF
		if count > BlockCommands {
			return nil, fmt.Errorf("%w: %d commands in block header", ErrCorruptBlock, count)
		}

		for i := range int(count) {
			cmd := binary.LittleEndian.Uint32(header[4+i*4:])

			blockSize := int(cmd & 0xFFFFFF)
			method := Method(cmd >> 24)

			block, ok := r.span(blockSize)
			if !ok {
				return nil, fmt.Errorf("%w: block of 0x%x bytes at 0x%x", ErrTruncatedStream, blockSize, r.pos)
			}

			n, err := d.decodeBlock(method, block, out[written:])
			if err != nil {
				return nil, err
			}

			written += n

			if alignCommands {
				r.skip((blockSize+3)&^3 - blockSize)
			}
		}

		r.align(BlockAlignment)
	}

	return out[:written], nil
}

// decodeBlock decodes one block into dst, whose length is the remaining budget.
func (d Decompressor) decodeBlock(method Method, block []byte, dst []byte) (int, error) {
	switch method {
	case Raw:
		if len(block) > len(dst) {
			return 0, fmt.Errorf("%w: raw block of 0x%x bytes overflows output", ErrCorruptBlock, len(block))
		}

		return copy(dst, block), nil
	case LZ4:
		n, err := lz4.UncompressBlock(block, dst)
		if err != nil {
			return 0, fmt.Errorf("failed to decompress lz4 block: %w", err)
		}

		return n, nil
	case Codec:
		if d.Codec == nil {
			return 0, ErrCodecUnavailable
		}

		n := min(len(dst), CodecChunkSize)

		_, err := d.Codec.Decompress(block, dst[:n])
		if err != nil {
			return 0, fmt.Errorf("failed to decompress codec block: %w", err)
		}

		return n, nil
	case CodecSized:
		if d.Codec == nil {
			return 0, ErrCodecUnavailable
		}

		if len(block) < 4 {
			return 0, fmt.Errorf("%w: sized codec block missing length", ErrCorruptBlock)
		}

		n := int(binary.LittleEndian.Uint32(block))
		if n > len(dst) {
			return 0, fmt.Errorf("%w: sized codec block of 0x%x bytes overflows output", ErrCorruptBlock, n)
		}

		_, err := d.Codec.Decompress(block[4:], dst[:n])
		if err != nil {
			return 0, fmt.Errorf("failed to decompress codec block: %w", err)
		}

		return n, nil
	}

	if d.Strict {
		return 0, fmt.Errorf("%w: 0x%x", ErrUnsupportedMethod, uint8(method))
	}

	return 0, nil
}

// spanReader hands out views of buf without copying.
type spanReader struct {
	buf []byte
	pos int
}

func (r *spanReader) span(n int) ([]byte, bool) {
	if n < 0 || n > len(r.buf)-r.pos {
		return nil, false
	}

	b := r.buf[r.pos : r.pos+n]
	r.pos += n

	return b, true
}

func (r *spanReader) skip(n int) {
	r.pos = min(r.pos+n, len(r.buf))
}

func (r *spanReader) align(n int) {
	r.skip((r.pos+n-1)&^(n-1) - r.pos)
}
