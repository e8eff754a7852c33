package logo

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/logokit/logo/rembg"
)

// whiteLogo 白底中间一个黑色方块
func whiteLogo(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if x >= w/4 && x < w*3/4 && y >= h/4 && y < h*3/4 {
				c = color.NRGBA{R: 20, G: 40, B: 160, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeNRGBA(t *testing.T, data []byte) *image.NRGBA {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	return toNRGBA(img)
}

func alphaOf(img *image.NRGBA) []uint8 {
	out := make([]uint8, 0, len(img.Pix)/4)
	for i := 3; i < len(img.Pix); i += 4 {
		out = append(out, img.Pix[i])
	}
	return out
}

func TestProcessor_Process(t *testing.T) {
	t.Parallel()

	p := NewProcessor(WithWorkers(2))
	out, err := p.Process(context.Background(), "brand.png", pngBytes(t, whiteLogo(40, 32)))
	require.NoError(t, err)

	assert.Equal(t, "brand.png", out.Name)
	assert.Equal(t, "png", out.Format)
	assert.Equal(t, 40, out.Width)
	assert.Equal(t, 32, out.Height)
	assert.False(t, out.HadAlpha)
	require.Len(t, out.Variants, 3)

	transparent := decodeNRGBA(t, out.Variants[Transparent])
	white := decodeNRGBA(t, out.Variants[White])
	black := decodeNRGBA(t, out.Variants[Black])

	assert.Equal(t, image.Rect(0, 0, 40, 32), transparent.Bounds())
	assert.Equal(t, alphaOf(transparent), alphaOf(white))
	assert.Equal(t, alphaOf(transparent), alphaOf(black))

	assert.Equal(t, uint8(0), transparent.NRGBAAt(0, 0).A)
	assert.Equal(t, color.NRGBA{R: 20, G: 40, B: 160, A: 255}, transparent.NRGBAAt(20, 16))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, white.NRGBAAt(20, 16))
	assert.Equal(t, color.NRGBA{A: 255}, black.NRGBAAt(20, 16))
}

func TestProcessor_Process_Formats(t *testing.T) {
	t.Parallel()

	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, whiteLogo(32, 32), &jpeg.Options{Quality: 95}))

	out, err := NewProcessor().Process(context.Background(), "brand.jpg", jpg.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", out.Format)
	assert.Equal(t, uint8(0), decodeNRGBA(t, out.Variants[Transparent]).NRGBAAt(0, 0).A)
}

func TestProcessor_Process_HadAlpha(t *testing.T) {
	t.Parallel()

	img := whiteLogo(16, 16)
	img.SetNRGBA(0, 0, color.NRGBA{})

	out, err := NewProcessor().Process(context.Background(), "cut.png", pngBytes(t, img))
	require.NoError(t, err)
	assert.True(t, out.HadAlpha)
}

func TestProcessor_Process_MaxDimension(t *testing.T) {
	t.Parallel()

	out, err := NewProcessor(WithMaxDimension(50)).Process(context.Background(), "wide.png", pngBytes(t, whiteLogo(200, 100)))
	require.NoError(t, err)
	assert.Equal(t, 50, out.Width)
	assert.Equal(t, 25, out.Height)
	assert.Equal(t, image.Rect(0, 0, 50, 25), decodeNRGBA(t, out.Variants[White]).Bounds())
}

func TestProcessor_Process_Tints(t *testing.T) {
	t.Parallel()

	tint, err := ParseTint("#ff8800")
	require.NoError(t, err)

	p := NewProcessor(WithTints(tint))
	assert.Equal(t, []Variant{Transparent, White, Black, "tint-ff8800"}, p.Variants())

	out, err := p.Process(context.Background(), "brand.png", pngBytes(t, whiteLogo(24, 24)))
	require.NoError(t, err)
	require.Contains(t, out.Variants, Variant("tint-ff8800"))

	tinted := decodeNRGBA(t, out.Variants["tint-ff8800"])
	assert.Equal(t, color.NRGBA{R: 255, G: 136, A: 255}, tinted.NRGBAAt(12, 12))
	assert.Equal(t, alphaOf(decodeNRGBA(t, out.Variants[Transparent])), alphaOf(tinted))
}

func TestProcessor_Process_Errors(t *testing.T) {
	t.Parallel()

	valid := pngBytes(t, whiteLogo(8, 8))
	truncated := append([]byte(nil), valid[:40]...)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		p    *Processor
		ctx  context.Context
		data []byte
		want error
	}{
		{name: "空文件", p: NewProcessor(), ctx: context.Background(), data: nil, want: ErrEmptyFile},
		{name: "超过大小", p: NewProcessor(WithValidator(NewValidator(16))), ctx: context.Background(), data: valid, want: ErrFileTooLarge},
		{name: "不是图片", p: NewProcessor(), ctx: context.Background(), data: []byte("hello, logo"), want: ErrUnsupportedFormat},
		{name: "PNG 被截断", p: NewProcessor(), ctx: context.Background(), data: truncated, want: ErrDecode},
		{name: "上下文已取消", p: NewProcessor(), ctx: canceled, data: valid, want: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := tt.p.Process(tt.ctx, "x.png", tt.data)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProcessor_ProcessBatch(t *testing.T) {
	t.Parallel()

	p := NewProcessor(WithWorkers(2), WithPipeline(rembg.NewPipeline(rembg.WithWorkers(1))))
	inputs := []Input{
		{Name: "a.png", Data: pngBytes(t, whiteLogo(16, 16))},
		{Name: "broken.png", Data: []byte("not an image")},
		{Name: "b.png", Data: pngBytes(t, whiteLogo(20, 12))},
	}

	results := p.ProcessBatch(context.Background(), inputs)
	require.Len(t, results, 3)

	assert.Equal(t, "a.png", results[0].Name)
	assert.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Output)

	assert.Equal(t, "broken.png", results[1].Name)
	assert.ErrorIs(t, results[1].Err, ErrUnsupportedFormat)
	assert.Nil(t, results[1].Output)

	assert.NoError(t, results[2].Err)
	assert.Equal(t, 20, results[2].Output.Width)
}

func TestProcessor_ProcessBatch_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewProcessor().ProcessBatch(ctx, []Input{{Name: "a.png", Data: pngBytes(t, whiteLogo(8, 8))}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		variant Variant
		want    string
	}{
		{name: "brand.png", variant: Transparent, want: "brand_transparent.png"},
		{name: "dir/logo.final.jpeg", variant: White, want: "logo.final_white.png"},
		{name: "noext", variant: Black, want: "noext_black.png"},
		{name: "", variant: Black, want: "logo_black.png"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.name, tt.variant), tt.name)
	}
}

func TestResizeWithinMax(t *testing.T) {
	t.Parallel()

	img := whiteLogo(30, 10)
	assert.Same(t, img, resizeWithinMax(img, 0))
	assert.Same(t, img, resizeWithinMax(img, 30))
	assert.Equal(t, image.Rect(0, 0, 15, 5), resizeWithinMax(img, 15).Bounds())
}
