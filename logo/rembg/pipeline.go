package rembg

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// 行数少于该值时不拆分并行
const minParallelRows = 64

// Result 去背景后的三张图，alpha 通道完全一致
type Result struct {
	Transparent *Buffer
	White       *Buffer
	Black       *Buffer
}

// Pipeline 白底 logo 去背景流水线，无状态，可并发调用
type Pipeline struct {
	workers         int
	antiAliasPasses int
	softenSigma     float64
	log             zerolog.Logger
}

type Option func(*Pipeline)

// WithWorkers 单张图内按行并行的 goroutine 数，<=1 表示串行
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithLogger 设置日志
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l.With().Str("component", "rembg").Logger() }
}

// WithAntiAlias 在边缘修正后追加加权邻域抗锯齿，passes 为 0 时关闭
func WithAntiAlias(passes int) Option {
	return func(p *Pipeline) { p.antiAliasPasses = max(0, passes) }
}

// WithSoften 生成单色版本前对透明底图做轻度模糊，sigma 为 0 时关闭
func WithSoften(sigma float64) Option {
	return func(p *Pipeline) { p.softenSigma = max(0, sigma) }
}

func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		workers: runtime.GOMAXPROCS(0),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process 依次执行：背景判定 → 边角泛洪 → 边缘细化 → 高斯平滑 → alpha 修正，
// 再由透明底图生成白色、黑色两个版本。src 只读，输出全部是新分配的缓冲。
func (p *Pipeline) Process(src *Buffer) (*Result, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("validate input: %w", err)
	}
	start := time.Now()

	snapshot := src.Clone()
	classified := p.classify(snapshot)
	filled := p.floodFill(snapshot, classified)
	refined := p.refineEdges(snapshot, filled)
	blended := p.gaussianBlend(refined)
	master := p.correctEdges(blended)

	if p.antiAliasPasses > 0 {
		master = p.antiAlias(master, p.antiAliasPasses)
	}
	if p.softenSigma > 0 {
		softened, err := FromImage(imaging.Blur(master.Image(), p.softenSigma))
		if err != nil {
			return nil, fmt.Errorf("soften: %w", err)
		}
		master = softened
	}

	res := &Result{
		Transparent: master,
		White:       Remap(master, White),
		Black:       Remap(master, Black),
	}
	for name, out := range map[string]*Buffer{"transparent": res.Transparent, "white": res.White, "black": res.Black} {
		if err := out.Validate(); err != nil {
			return nil, fmt.Errorf("%s output: %w", name, err)
		}
		if !sameShape(src, out) {
			return nil, fmt.Errorf("%s output %dx%d, input %dx%d: %w",
				name, out.Width, out.Height, src.Width, src.Height, ErrDimensionMismatch)
		}
	}

	p.log.Debug().
		Int("width", src.Width).
		Int("height", src.Height).
		Int("transparent", countTransparent(master)).
		Dur("elapsed", time.Since(start)).
		Msg("background removed")
	return res, nil
}

// Remove 实现 Remover，只返回透明底图
func (p *Pipeline) Remove(_ context.Context, img image.Image) (image.Image, error) {
	src, err := FromImage(img)
	if err != nil {
		return nil, err
	}
	res, err := p.Process(src)
	if err != nil {
		return nil, err
	}
	return res.Transparent.Image(), nil
}

// rows 把 [0,h) 按块分给多个 goroutine；fn 只能写自己那一行
func (p *Pipeline) rows(h int, fn func(y int)) {
	if p.workers <= 1 || h < minParallelRows {
		for y := 0; y < h; y++ {
			fn(y)
		}
		return
	}

	var g errgroup.Group
	chunk := (h + p.workers - 1) / p.workers
	for y0 := 0; y0 < h; y0 += chunk {
		y1 := min(y0+chunk, h)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				fn(y)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func countTransparent(b *Buffer) int {
	n := 0
	for i := 3; i < len(b.Pix); i += 4 {
		if b.Pix[i] == 0 {
			n++
		}
	}
	return n
}
