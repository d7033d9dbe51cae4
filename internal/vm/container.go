package vm

// Container owns one compiled script's bytecode: a contiguous byte
// vector of [Handle(2 bytes)][immediates...] instructions (constants are
// inline immediates; there is no separate constant pool) and debug
// line/column tables parallel to Code (spec.md §3
// "Container", §4.3 "errors... carry line/column").
//
// A Container is produced by exactly one successful Parse and never
// mutated afterward (spec.md §3 "Lifecycle": "Containers are produced
// by parse and never mutated afterward"). Go has no move-only types, so
// "move-only" here means: never copy a Container by value — always
// pass *Container, exactly as the teacher's Chunk is always shared by
// pointer (internal/vm/chunk.go in the example pack).
type Container struct {
	Code    []byte
	Lines   []int
	Columns []int

	// FrameSize is the minimum register-file size (in bytes) a Worker
	// must allocate to run this Container, captured from the
	// SymbolTable at compile time.
	FrameSize int

	// Name is the parent script name, used only for diagnostics.
	Name string
}

// NewContainer returns an empty, writable Container.
func NewContainer(name string, frameSize int) *Container {
	return &Container{Name: name, FrameSize: frameSize}
}

// Truthy reports whether c holds any compiled code (spec.md §3
// "Container... truthy iff non-empty").
func (c *Container) Truthy() bool {
	return c != nil && len(c.Code) > 0
}

// Len returns the number of bytes of bytecode in the container.
func (c *Container) Len() int { return len(c.Code) }

// writeByte appends one byte with its source position and returns the
// offset it was written at.
func (c *Container) writeByte(b byte, line, col int) int {
	off := len(c.Code)
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	c.Columns = append(c.Columns, col)
	return off
}

// WriteHandle appends a Handle as two big-endian bytes.
func (c *Container) WriteHandle(h Handle, line, col int) {
	c.writeByte(byte(h>>8), line, col)
	c.writeByte(byte(h), line, col)
}

// WriteByte appends one immediate byte.
func (c *Container) WriteByte(b byte, line, col int) {
	c.writeByte(b, line, col)
}

// WriteU16 appends a two-byte big-endian immediate and returns the
// offset of its first byte (used by the compiler to patch label
// fixups once a jump target is resolved).
func (c *Container) WriteU16(v uint16, line, col int) int {
	off := c.writeByte(byte(v>>8), line, col)
	c.writeByte(byte(v), line, col)
	return off
}

// PatchU16 overwrites the two-byte immediate at off (as returned by
// WriteU16) with a resolved value — used for backward-reference-free
// label fixups (spec.md §4.3 "Labels").
func (c *Container) PatchU16(off int, v uint16) {
	c.Code[off] = byte(v >> 8)
	c.Code[off+1] = byte(v)
}

// WriteI64 appends an eight-byte big-endian immediate.
func (c *Container) WriteI64(v int64) {
	for shift := 56; shift >= 0; shift -= 8 {
		c.Code = append(c.Code, byte(v>>shift))
		c.Lines = append(c.Lines, c.lastLine())
		c.Columns = append(c.Columns, c.lastCol())
	}
}

func (c *Container) lastLine() int {
	if len(c.Lines) == 0 {
		return 0
	}
	return c.Lines[len(c.Lines)-1]
}

func (c *Container) lastCol() int {
	if len(c.Columns) == 0 {
		return 0
	}
	return c.Columns[len(c.Columns)-1]
}
