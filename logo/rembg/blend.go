package rembg

// 3x3 高斯核，权重和为 16
var gaussianKernel = [3][3]int{
	{1, 2, 1},
	{2, 4, 2},
	{1, 2, 1},
}

// gaussianBlend 只对半透明像素做 3x3 高斯平滑
// 从 cur 读、写入新缓冲，避免扫描顺序影响结果；越界邻居取最近的边缘像素
func (p *Pipeline) gaussianBlend(cur *Buffer) *Buffer {
	out := cur.Clone()
	w, h := cur.Width, cur.Height

	p.rows(h, func(y int) {
		for x := 0; x < w; x++ {
			a := cur.Alpha(x, y)
			if a == 0 || a == 255 {
				continue
			}

			var sum [4]int
			for ky := -1; ky <= 1; ky++ {
				py := clamp(y+ky, 0, h-1)
				for kx := -1; kx <= 1; kx++ {
					px := clamp(x+kx, 0, w-1)
					k := gaussianKernel[ky+1][kx+1]
					i := cur.offset(px, py)
					sum[0] += int(cur.Pix[i]) * k
					sum[1] += int(cur.Pix[i+1]) * k
					sum[2] += int(cur.Pix[i+2]) * k
					sum[3] += int(cur.Pix[i+3]) * k
				}
			}

			i := out.offset(x, y)
			for c := 0; c < 4; c++ {
				out.Pix[i+c] = uint8((sum[c] + 8) >> 4)
			}
		}
	})
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
