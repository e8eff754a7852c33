package logo

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chaos-io/logokit/logo/rembg"
)

// Output 一张 logo 的处理结果，Variants 里都是 PNG 字节
type Output struct {
	Name     string
	Format   string
	Width    int
	Height   int
	HadAlpha bool
	Variants map[Variant][]byte
}

// Input 批处理的一项
type Input struct {
	Name string
	Data []byte
}

// BatchResult 单张图的结果，失败时 Err 非空，Output 为 nil
type BatchResult struct {
	Name   string
	Output *Output
	Err    error
}

type Processor struct {
	pipeline     *rembg.Pipeline
	validator    *Validator
	maxDimension int
	tints        []Tint
	workers      int
	log          zerolog.Logger
}

type Option func(*Processor)

func WithPipeline(p *rembg.Pipeline) Option {
	return func(pr *Processor) { pr.pipeline = p }
}

func WithValidator(v *Validator) Option {
	return func(pr *Processor) { pr.validator = v }
}

// WithMaxDimension 最长边超过 n 时先缩放，0 表示保持原尺寸
func WithMaxDimension(n int) Option {
	return func(pr *Processor) { pr.maxDimension = n }
}

func WithTints(tints ...Tint) Option {
	return func(pr *Processor) { pr.tints = append(pr.tints, tints...) }
}

// WithWorkers 批处理时同时处理的图片数
func WithWorkers(n int) Option {
	return func(pr *Processor) { pr.workers = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(pr *Processor) { pr.log = l.With().Str("component", "logo").Logger() }
}

func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		workers: runtime.GOMAXPROCS(0),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.pipeline == nil {
		p.pipeline = rembg.NewPipeline(rembg.WithLogger(p.log))
	}
	if p.validator == nil {
		p.validator = NewValidator(DefaultMaxFileSize)
	}
	p.workers = max(1, p.workers)
	return p
}

func (p *Processor) Validator() *Validator {
	return p.validator
}

// Variants 本处理器会生成的全部版本名
func (p *Processor) Variants() []Variant {
	vs := []Variant{Transparent, White, Black}
	for _, t := range p.tints {
		vs = append(vs, t.Name)
	}
	return vs
}

// Process 校验 → 解码 → 去背景 → 生成单色版本 → 编码 PNG
// 任何一步失败都整体返回错误，不会返回部分结果
func (p *Processor) Process(ctx context.Context, name string, data []byte) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	if _, err := p.validator.Validate(data); err != nil {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}

	img, format, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	src := toNRGBA(img)
	hadAlpha := hasUsefulAlpha(src)
	src = resizeWithinMax(src, p.maxDimension)

	buf, err := rembg.FromImage(src)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	res, err := p.pipeline.Process(buf)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", name, err)
	}

	buffers := map[Variant]*rembg.Buffer{
		Transparent: res.Transparent,
		White:       res.White,
		Black:       res.Black,
	}
	for _, t := range p.tints {
		buffers[t.Name] = rembg.Remap(res.Transparent, t.Color)
	}

	out := &Output{
		Name:     name,
		Format:   format,
		Width:    buf.Width,
		Height:   buf.Height,
		HadAlpha: hadAlpha,
		Variants: make(map[Variant][]byte, len(buffers)),
	}
	for v, b := range buffers {
		encoded, err := encodePNG(b.Image())
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", name, v, err)
		}
		out.Variants[v] = encoded
	}

	p.log.Info().
		Str("name", name).
		Str("format", format).
		Int("width", out.Width).
		Int("height", out.Height).
		Bool("had_alpha", hadAlpha).
		Dur("elapsed", time.Since(start)).
		Msg("logo processed")
	return out, nil
}

// ProcessBatch 并发处理多张图，单张失败不影响其它
// ctx 取消后未开始的图片直接记为取消，已开始的会跑完
func (p *Processor) ProcessBatch(ctx context.Context, inputs []Input) []BatchResult {
	results := make([]BatchResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, in := range inputs {
		g.Go(func() error {
			out, err := p.Process(ctx, in.Name, in.Data)
			if err != nil {
				p.log.Warn().Err(err).Str("name", in.Name).Msg("logo failed")
			}
			results[i] = BatchResult{Name: in.Name, Output: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
