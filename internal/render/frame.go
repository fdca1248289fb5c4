package render

import (
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Frame is a linear HDR RGB framebuffer plus its encoded RGBA8 output.
type Frame struct {
	W, H int

	// Pix holds three float32 channels per pixel, row-major.
	Pix []float32

	bright []float32 // bloom scratch
	blur   []float32
	out    []byte
}

// NewFrame allocates a frame of the given size.
func NewFrame(w, h int) *Frame {
	f := &Frame{}
	f.Resize(w, h)
	return f
}

// Resize reallocates the buffers when the size changes.
func (f *Frame) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w == f.W && h == f.H && f.Pix != nil {
		return
	}
	f.W, f.H = w, h
	f.Pix = make([]float32, 3*w*h)
	f.bright = make([]float32, 3*w*h)
	f.blur = make([]float32, 3*w*h)
	f.out = make([]byte, 4*w*h)
}

// Clear zeroes the HDR buffer.
func (f *Frame) Clear() {
	clear(f.Pix)
}

// add accumulates light into one pixel. Out-of-range pixels are ignored.
func (f *Frame) add(x, y int, r, g, b float32) {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return
	}
	i := 3 * (y*f.W + x)
	f.Pix[i] += r
	f.Pix[i+1] += g
	f.Pix[i+2] += b
}

// RGBA returns the encoded 8-bit output written by the last Render.
func (f *Frame) RGBA() []byte {
	return f.out
}

// At returns the encoded 8-bit colour at a pixel.
func (f *Frame) At(x, y int) (r, g, b uint8) {
	i := 4 * (y*f.W + x)
	return f.out[i], f.out[i+1], f.out[i+2]
}

// Image wraps the encoded output as an image without copying.
func (f *Frame) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    f.out,
		Stride: 4 * f.W,
		Rect:   image.Rect(0, 0, f.W, f.H),
	}
}

// eachRow runs fn over every row, spread across CPUs in stripes.
func (f *Frame) eachRow(fn func(y int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > f.H {
		workers = f.H
	}
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		offset := w
		g.Go(func() error {
			for y := offset; y < f.H; y += workers {
				fn(y)
			}
			return nil
		})
	}
	_ = g.Wait()
}
