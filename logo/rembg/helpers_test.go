package rembg

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

// solid 生成纯色缓冲
func solid(t *testing.T, w, h int, c color.NRGBA) *Buffer {
	t.Helper()
	b, err := NewBuffer(w, h)
	require.NoError(t, err)
	fillRect(b, image.Rect(0, 0, w, h), c)
	return b
}

// fillRect 填充 r 范围内的像素
func fillRect(b *Buffer, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			b.Set(x, y, c)
		}
	}
}

func alphas(b *Buffer) []uint8 {
	out := make([]uint8, 0, b.Width*b.Height)
	for i := 3; i < len(b.Pix); i += 4 {
		out = append(out, b.Pix[i])
	}
	return out
}

var (
	opaqueWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	opaqueBlack = color.NRGBA{A: 255}
	opaqueGray  = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
)
