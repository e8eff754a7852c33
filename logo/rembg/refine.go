package rembg

import "math"

const (
	flatGradient       = 15.0 // 梯度低于此值视为平坦区域
	proximityRadius    = 2    // 5x5 邻域
	proximityThreshold = 0.3
	proximityStrength  = 0.7
)

// gradient 中心差分梯度，取自去背景前的快照
func gradient(snapshot *Buffer, x, y int) float64 {
	gx := snapshot.Intensity(x+1, y) - snapshot.Intensity(x-1, y)
	gy := snapshot.Intensity(x, y+1) - snapshot.Intensity(x, y-1)
	return math.Sqrt(gx*gx + gy*gy)
}

// backgroundProximity 5x5 邻域内（只算图内像素）透明像素的占比
func backgroundProximity(cur *Buffer, x, y int) float64 {
	var transparent, total int
	for dy := -proximityRadius; dy <= proximityRadius; dy++ {
		for dx := -proximityRadius; dx <= proximityRadius; dx++ {
			nx, ny := x+dx, y+dy
			if !cur.In(nx, ny) {
				continue
			}
			total++
			if cur.Alpha(nx, ny) == 0 {
				transparent++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(transparent) / float64(total)
}

// refineEdges 平坦且靠近背景的像素改为半透明，消除白边
func (p *Pipeline) refineEdges(snapshot, cur *Buffer) *Buffer {
	out := cur.Clone()
	if cur.Width < 3 || cur.Height < 3 {
		return out
	}

	p.rows(cur.Height, func(y int) {
		if y == 0 || y == cur.Height-1 {
			return
		}
		for x := 1; x < cur.Width-1; x++ {
			a := cur.Alpha(x, y)
			if a == 0 {
				continue
			}
			if gradient(snapshot, x, y) >= flatGradient {
				continue
			}
			prox := backgroundProximity(cur, x, y)
			if prox <= proximityThreshold {
				continue
			}
			out.SetAlpha(x, y, uint8(math.Round(float64(a)*(1-prox*proximityStrength))))
		}
	})
	return out
}
