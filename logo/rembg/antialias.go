package rembg

import "math"

const (
	antiAliasBlend        = 0.4 // 40% 平滑，60% 保留原值
	transparentNeighborWt = 0.1
)

// neighborWeight 距离越近、颜色越接近权重越大；透明邻居权重打一折
func neighborWeight(cur *Buffer, ci, ni int, distance float64) float64 {
	w := 1 / (distance + 0.1)

	dr := float64(cur.Pix[ci]) - float64(cur.Pix[ni])
	dg := float64(cur.Pix[ci+1]) - float64(cur.Pix[ni+1])
	db := float64(cur.Pix[ci+2]) - float64(cur.Pix[ni+2])
	colorDiff := math.Sqrt(dr*dr+dg*dg+db*db) / 255
	w *= math.Exp(-colorDiff * 2)

	if cur.Pix[ni+3] == 0 {
		w *= transparentNeighborWt
	}
	return w
}

// antiAlias 对半透明边界做加权邻域混合，passes 次，每次双缓冲
func (p *Pipeline) antiAlias(cur *Buffer, passes int) *Buffer {
	if cur.Width < 3 || cur.Height < 3 {
		return cur.Clone()
	}
	for pass := 0; pass < passes; pass++ {
		cur = p.antiAliasPass(cur)
	}
	return cur
}

func (p *Pipeline) antiAliasPass(cur *Buffer) *Buffer {
	out := cur.Clone()
	p.rows(cur.Height, func(y int) {
		if y == 0 || y == cur.Height-1 {
			return
		}
		for x := 1; x < cur.Width-1; x++ {
			ci := cur.offset(x, y)
			a := cur.Pix[ci+3]
			if a == 0 || a == 255 {
				continue
			}

			var sum [4]float64
			var total float64
			for _, d := range neighbors8 {
				ni := cur.offset(x+d[0], y+d[1])
				wt := neighborWeight(cur, ci, ni, math.Hypot(float64(d[0]), float64(d[1])))
				for c := 0; c < 4; c++ {
					sum[c] += float64(cur.Pix[ni+c]) * wt
				}
				total += wt
			}
			if total == 0 {
				continue
			}

			for c := 0; c < 4; c++ {
				v := float64(cur.Pix[ci+c])*(1-antiAliasBlend) + sum[c]/total*antiAliasBlend
				out.Pix[ci+c] = uint8(math.Round(math.Min(255, v)))
			}
		}
	})
	return out
}
