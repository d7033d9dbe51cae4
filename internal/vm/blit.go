package vm

// BlitWorker is the specialized Worker of spec.md §4.4 ("Blit
// variant"): it caches one compiled Container and runs it once per
// pixel, binding the source pixel, destination pixel, coordinates,
// shade level, and half-transparency flag as inputs and writing the
// transformed pixel back through the same register semantics every
// other Worker uses.
//
// T is the host's pixel representation; it must be a plain,
// trivially-copyable type (the same constraint spec.md §3 places on any
// in-register value). The register layout is fixed by convention
// (spec.md requires only that the semantics match a regular Worker, not
// that the offsets be host-configurable):
//
//	offset 0            : output pixel (T)     — the script's `var pixel` return slot
//	+ wordAlign(SizeOf[T]()) : src pixel (T), input
//	+ wordAlign(SizeOf[T]()) : dst pixel (T), input
//	+ wordAlign(SizeOf[T]()) : x (int32), input
//	+4                  : y (int32), input
//	+4                  : shade (uint8), input
//	+1                  : half (bool), input; the frame is then padded to 8
type BlitWorker[T any] struct {
	w         *Worker
	container *Container
	budget    int

	offOutput int
	offSrc    int
	offDst    int
	offX      int
	offY      int
	offShade  int
	offHalf   int
}

// NewBlitWorker builds the fixed blit register layout for pixel type T
// and caches container for repeated per-pixel execution. Each
// ExecuteBlit call starts with the full budget.
func NewBlitWorker[T any](container *Container, budget int) *BlitWorker[T] {
	pixelSize := SizeOf[T]()
	offOutput := 0
	offSrc := wordAlign(pixelSize)
	offDst := offSrc + wordAlign(pixelSize)
	offX := offDst + wordAlign(pixelSize)
	offY := offX + 4
	offShade := offY + 4
	offHalf := offShade + 1
	frameSize := wordAlign(offHalf + 1)
	if frameSize < container.FrameSize {
		frameSize = container.FrameSize
	}

	return &BlitWorker[T]{
		w:         NewWorker(frameSize, budget),
		container: container,
		budget:    budget,
		offOutput: offOutput,
		offSrc:    offSrc,
		offDst:    offDst,
		offX:      offX,
		offY:      offY,
		offShade:  offShade,
		offHalf:   offHalf,
	}
}

// ExecuteBlit binds one pixel's inputs, runs the cached container, and
// returns the transformed pixel.
func (bw *BlitWorker[T]) ExecuteBlit(src, dst T, x, y int32, shade uint8, half bool) (T, error) {
	bw.w.RF.Reset()
	Store(bw.w.RF, bw.offSrc, src)
	Store(bw.w.RF, bw.offDst, dst)
	Store(bw.w.RF, bw.offX, x)
	Store(bw.w.RF, bw.offY, y)
	Store(bw.w.RF, bw.offShade, shade)
	Store(bw.w.RF, bw.offHalf, half)
	Store(bw.w.RF, bw.offOutput, dst) // default output: unchanged pixel

	bw.w.budget = bw.budget
	if err := bw.w.Execute(bw.container); err != nil {
		var zero T
		return zero, err
	}
	return Load[T](bw.w.RF, bw.offOutput), nil
}

// Offsets returns the fixed register layout, for a compiler front end
// declaring a blit-kind parser's symbol table to agree with it.
func (bw *BlitWorker[T]) Offsets() (output, src, dst, x, y, shade, half int) {
	return bw.offOutput, bw.offSrc, bw.offDst, bw.offX, bw.offY, bw.offShade, bw.offHalf
}
