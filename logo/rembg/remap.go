package rembg

import "image/color"

var (
	White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	Black = color.NRGBA{A: 255}
)

// Remap 把所有非透明像素的 RGB 换成 target，alpha 原样保留
// 完全透明的像素（包括 RGB）不动；target 的 alpha 被忽略
func Remap(src *Buffer, target color.NRGBA) *Buffer {
	out := src.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i+3] == 0 {
			continue
		}
		out.Pix[i] = target.R
		out.Pix[i+1] = target.G
		out.Pix[i+2] = target.B
	}
	return out
}
