package rembg

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var (
	// ErrDimensionMismatch 像素数组长度与宽高不一致
	ErrDimensionMismatch = errors.New("raster dimension mismatch")
	// ErrEmptyImage 宽或高为 0
	ErrEmptyImage = errors.New("empty raster")
)

// Buffer 按行存储的 RGBA 像素（非预乘），len(Pix) == Width*Height*4
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBuffer 分配一个全透明的 w*h 缓冲
func NewBuffer(w, h int) (*Buffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("new buffer %dx%d: %w", w, h, ErrEmptyImage)
	}
	return &Buffer{Width: w, Height: h, Pix: make([]uint8, w*h*4)}, nil
}

// FromImage 把任意图片复制为 Buffer，坐标归零
func FromImage(img image.Image) (*Buffer, error) {
	b := img.Bounds()
	buf, err := NewBuffer(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := 0; y < buf.Height; y++ {
			src := nrgba.PixOffset(b.Min.X, b.Min.Y+y)
			copy(buf.Pix[y*buf.Width*4:(y+1)*buf.Width*4], nrgba.Pix[src:src+buf.Width*4])
		}
		return buf, nil
	}

	dst := &image.NRGBA{Pix: buf.Pix, Stride: buf.Width * 4, Rect: image.Rect(0, 0, buf.Width, buf.Height)}
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return buf, nil
}

// Image 返回一份独立的 *image.NRGBA，便于编码
func (b *Buffer) Image() *image.NRGBA {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &image.NRGBA{Pix: pix, Stride: b.Width * 4, Rect: image.Rect(0, 0, b.Width, b.Height)}
}

// Clone 深拷贝
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Validate 检查长度不变量
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("nil buffer: %w", ErrDimensionMismatch)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("buffer %dx%d: %w", b.Width, b.Height, ErrEmptyImage)
	}
	if len(b.Pix) != b.Width*b.Height*4 {
		return fmt.Errorf("buffer %dx%d has %d bytes, want %d: %w",
			b.Width, b.Height, len(b.Pix), b.Width*b.Height*4, ErrDimensionMismatch)
	}
	return nil
}

// In 报告 (x, y) 是否在图内
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

func (b *Buffer) offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// At 越界时返回全透明像素
func (b *Buffer) At(x, y int) color.NRGBA {
	if !b.In(x, y) {
		return color.NRGBA{}
	}
	i := b.offset(x, y)
	p := b.Pix[i : i+4 : i+4]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Set 越界时忽略
func (b *Buffer) Set(x, y int, c color.NRGBA) {
	if !b.In(x, y) {
		return
	}
	i := b.offset(x, y)
	p := b.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// Alpha 越界返回 0
func (b *Buffer) Alpha(x, y int) uint8 {
	if !b.In(x, y) {
		return 0
	}
	return b.Pix[b.offset(x, y)+3]
}

// SetAlpha 只改 alpha 通道
func (b *Buffer) SetAlpha(x, y int, a uint8) {
	if !b.In(x, y) {
		return
	}
	b.Pix[b.offset(x, y)+3] = a
}

// Intensity RGB 平均亮度，越界返回 0
func (b *Buffer) Intensity(x, y int) float64 {
	if !b.In(x, y) {
		return 0
	}
	i := b.offset(x, y)
	return (float64(b.Pix[i]) + float64(b.Pix[i+1]) + float64(b.Pix[i+2])) / 3
}

// sameShape 判断两个缓冲尺寸一致
func sameShape(a, b *Buffer) bool {
	return a.Width == b.Width && a.Height == b.Height && len(a.Pix) == len(b.Pix)
}
