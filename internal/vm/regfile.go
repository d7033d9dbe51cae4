package vm

import (
	"fmt"
	"unsafe"
)

// RegisterFile is the fixed-capacity byte buffer serving as a Worker's
// address space (spec.md §3 "RegisterFile"). It is 8-byte aligned so
// that any trivially-copyable host type up to word size can be read or
// written at any offset without straddling an alignment boundary
// incorrectly, and it never exposes a raw pointer outside this package
// (spec.md Design Notes §9 "Pointer-into-register-file aliasing").
type RegisterFile struct {
	buf []byte
}

// wordAlign rounds n up to the next multiple of 8.
func wordAlign(n int) int {
	return (n + 7) &^ 7
}

// NewRegisterFile allocates a zeroed register file of at least size
// bytes, rounded up to the nearest 8-byte word.
func NewRegisterFile(size int) *RegisterFile {
	return &RegisterFile{buf: make([]byte, wordAlign(size))}
}

// Len returns the register file's capacity in bytes.
func (rf *RegisterFile) Len() int { return len(rf.buf) }

// Reset zeroes the entire buffer (spec.md §4.4 "updateBase... zeroes the
// register file").
func (rf *RegisterFile) Reset() {
	for i := range rf.buf {
		rf.buf[i] = 0
	}
}

// checkBounds panics if a value of size n at offset would fall outside
// the buffer. This is the "debug-time" half of the checked/raw duality
// in spec.md Design Notes §9; unlike the original C++, Go gives us no
// separate release build to drop the check in, so RegisterFile always
// checks — the cost is a handful of comparisons per register access,
// negligible next to the indirect call already paid per instruction.
func (rf *RegisterFile) checkBounds(offset, n int) {
	if offset < 0 || n < 0 || offset+n > len(rf.buf) {
		panic(fmt.Sprintf("vm: register file access out of bounds: offset=%d size=%d capacity=%d", offset, n, len(rf.buf)))
	}
}

// Load reinterprets the n bytes at offset as T and returns a copy. T
// must be a plain, trivially-copyable type (spec.md §3) — no slices,
// maps, or types containing pointers to Go-managed memory, since the
// register file is not scanned by the garbage collector.
func Load[T any](rf *RegisterFile, offset int) T {
	var zero T
	n := int(unsafe.Sizeof(zero))
	rf.checkBounds(offset, n)
	return *(*T)(unsafe.Pointer(&rf.buf[offset]))
}

// Store writes v's bytes at offset.
func Store[T any](rf *RegisterFile, offset int, v T) {
	n := int(unsafe.Sizeof(v))
	rf.checkBounds(offset, n)
	*(*T)(unsafe.Pointer(&rf.buf[offset])) = v
}

// SizeOf returns the byte size a value of type T occupies in a
// RegisterFile, for callers computing register offsets (e.g. the
// BlitWorker layout and pkg/script's register declarations).
func SizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// CopyFrom overwrites size bytes starting at offset from src. Used by
// updateBase-style setup code that copies declared input tuples into a
// fresh frame without reflecting over each field.
func (rf *RegisterFile) CopyFrom(offset int, src []byte) {
	rf.checkBounds(offset, len(src))
	copy(rf.buf[offset:offset+len(src)], src)
}

// CopyTo reads size bytes starting at offset into dst.
func (rf *RegisterFile) CopyTo(offset int, dst []byte) {
	rf.checkBounds(offset, len(dst))
	copy(dst, rf.buf[offset:offset+len(dst)])
}

// Move copies size bytes from src to dst within the same register file,
// correctly even when the two ranges overlap. Used by the compiler's
// built-in move handlers to implement assignment and return binding.
func (rf *RegisterFile) Move(dst, src, size int) {
	rf.checkBounds(dst, size)
	rf.checkBounds(src, size)
	copy(rf.buf[dst:dst+size], rf.buf[src:src+size])
}
