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
	"fmt"
	"syscall"
	"unsafe"

	nwoodle "github.com/new-world-tools/go-oodle"
)

const (
	fuzzSafe   = 1
	unthreaded = 3
	decodeProc = "OodleLZ_Decompress"
)

// dllBackend calls OodleLZ_Decompress on a library loaded by name.
type dllBackend struct {
	dll  *syscall.DLL
	proc *syscall.Proc
}

func loadLibrary(name string) (backend, error) {
	dll, err := syscall.LoadDLL(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	proc, err := dll.FindProc(decodeProc)
	if err != nil {
		dll.Release()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return &dllBackend{dll: dll, proc: proc}, nil
}

func (b *dllBackend) decompress(src []byte, dst []byte) (int, error) {
	// compBuf, compBufSize, rawBuf, rawLen, fuzzSafe, checkCRC, verbosity,
	// decBufBase, decBufSize, fpCallback, callbackUserData, decoderMemory,
	// decoderMemorySize, threadPhase
	r, _, _ := b.proc.Call(
		uintptr(unsafe.Pointer(&src[0])), uintptr(len(src)),
		uintptr(unsafe.Pointer(&dst[0])), uintptr(len(dst)),
		fuzzSafe, 0, 0,
		0, 0, 0, 0, 0, 0,
		unthreaded,
	)

	n := int(int32(r))
	if n <= 0 {
		return 0, fmt.Errorf("failed to decompress: %s returned %d", decodeProc, n)
	}

	return n, nil
}

func (b *dllBackend) release() error {
	return b.dll.Release()
}

// bundledBackend defers to go-oodle, which finds its own library.
type bundledBackend struct{}

func loadBundled() (backend, error) {
	return bundledBackend{}, nil
}

func (bundledBackend) decompress(src []byte, dst []byte) (int, error) {
	b, err := nwoodle.Decompress(src, int64(len(dst)))
	if err != nil {
		return 0, fmt.Errorf("failed to decompress: %w", err)
	}

	return copy(dst, b), nil
}

func (bundledBackend) release() error {
	return nil
}
