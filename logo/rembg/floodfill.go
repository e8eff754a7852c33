package rembg

// bitset 按像素下标记录是否访问过
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (s bitset) has(i int) bool {
	return s[i>>6]&(1<<(uint(i)&63)) != 0
}

func (s bitset) set(i int) {
	s[i>>6] |= 1 << (uint(i) & 63)
}

var neighbors8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// fillEligible 已透明，或落在宽松白色阈值内
func fillEligible(classified *Buffer, i int) bool {
	p := classified.Pix[i*4 : i*4+4 : i*4+4]
	return p[3] == 0 || isNearWhite(p[0], p[1], p[2])
}

// reachable 从四个角做 8 邻域泛洪，返回能到达的像素集合
// 用显式栈，入栈即标记，栈深不超过 w*h
func reachable(classified *Buffer) bitset {
	w, h := classified.Width, classified.Height
	visited := newBitset(w * h)
	stack := make([]int, 0, min(w*h, 1<<16))

	push := func(x, y int) {
		i := y*w + x
		if visited.has(i) || !fillEligible(classified, i) {
			return
		}
		visited.set(i)
		stack = append(stack, i)
	}

	push(0, 0)
	push(w-1, 0)
	push(0, h-1)
	push(w-1, h-1)

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for _, d := range neighbors8 {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			push(nx, ny)
		}
	}
	return visited
}

// floodFill 只有从边角可达的背景才透明，其余像素恢复分类前的 alpha
func (p *Pipeline) floodFill(original, classified *Buffer) *Buffer {
	out := original.Clone()
	seen := reachable(classified)
	for i := 0; i < out.Width*out.Height; i++ {
		if seen.has(i) {
			out.Pix[i*4+3] = 0
		}
	}
	return out
}
