package rembg

import (
	"gonum.org/v1/gonum/stat"
)

// 背景判定阈值
const (
	whiteThreshold = 235 // 白色：RGB 都不低于该值
	grayThreshold  = 245 // 浅灰：平均亮度不低于该值
	colorTolerance = 25  // 通道差/标准差上限

	fillThreshold = 230 // 泛洪时更宽松的白色阈值
	fillTolerance = 30
)

// Class 像素分类，仅在判定过程中临时使用
type Class uint8

const (
	Foreground Class = iota
	Background
	Uncertain
)

func (c Class) String() string {
	switch c {
	case Background:
		return "background"
	case Uncertain:
		return "uncertain"
	default:
		return "foreground"
	}
}

// classifyPixel 白色测试或浅灰测试通过即为背景
// 只通过宽松阈值的像素记为 Uncertain，交给泛洪决定
func classifyPixel(r, g, b, a uint8) Class {
	if a == 0 {
		return Background
	}
	if isWhite(r, g, b) || isLightGray(r, g, b) {
		return Background
	}
	if isNearWhite(r, g, b) {
		return Uncertain
	}
	return Foreground
}

func isWhite(r, g, b uint8) bool {
	if r < whiteThreshold || g < whiteThreshold || b < whiteThreshold {
		return false
	}
	return channelSpread(r, g, b) <= colorTolerance
}

func isLightGray(r, g, b uint8) bool {
	mean, std := stat.PopMeanStdDev([]float64{float64(r), float64(g), float64(b)}, nil)
	return mean >= grayThreshold && std <= colorTolerance
}

func isNearWhite(r, g, b uint8) bool {
	if r < fillThreshold || g < fillThreshold || b < fillThreshold {
		return false
	}
	return channelSpread(r, g, b) <= fillTolerance
}

// channelSpread max(|R-G|, |G-B|, |R-B|)
func channelSpread(r, g, b uint8) int {
	return max(absDiff(r, g), absDiff(g, b), absDiff(r, b))
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// classify 在副本上把背景像素的 alpha 置 0
func (p *Pipeline) classify(src *Buffer) *Buffer {
	out := src.Clone()
	p.rows(src.Height, func(y int) {
		row := out.Pix[y*out.Width*4 : (y+1)*out.Width*4]
		for i := 0; i < len(row); i += 4 {
			if row[i+3] == 0 {
				continue
			}
			if classifyPixel(row[i], row[i+1], row[i+2], row[i+3]) == Background {
				row[i+3] = 0
			}
		}
	})
	return out
}
