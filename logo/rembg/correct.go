package rembg

import "math"

const (
	lowAlpha          = 128 // 低于此值的半透明像素需要修正
	weakEdgeThreshold = 0.3
	weakEdgeKeep      = 0.3 // 弱边缘保留 30% 的 alpha
	minEdgeAlpha      = 64  // 真实边缘的最低 alpha
)

// edgeStrength 与 8 邻域亮度差的最大值，归一化到 [0,1]
func edgeStrength(cur *Buffer, x, y int) float64 {
	center := cur.Intensity(x, y)
	var maxDiff float64
	for _, d := range neighbors8 {
		nx, ny := x+d[0], y+d[1]
		if !cur.In(nx, ny) {
			continue
		}
		maxDiff = math.Max(maxDiff, math.Abs(center-cur.Intensity(nx, ny)))
	}
	return maxDiff / 255
}

// correctEdges 低透明度像素：弱边缘继续变淡，强边缘至少保留 64
func (p *Pipeline) correctEdges(cur *Buffer) *Buffer {
	out := cur.Clone()
	p.rows(cur.Height, func(y int) {
		for x := 0; x < cur.Width; x++ {
			a := cur.Alpha(x, y)
			if a == 0 || a >= lowAlpha {
				continue
			}
			if edgeStrength(cur, x, y) < weakEdgeThreshold {
				out.SetAlpha(x, y, uint8(math.Round(float64(a)*weakEdgeKeep)))
			} else {
				out.SetAlpha(x, y, max(a, minEdgeAlpha))
			}
		}
	})
	return out
}
