package rembg

import (
	"context"
	"image"
)

// Remover 去背景接口，返回带 alpha 的新图，不修改输入
type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

var _ Remover = (*Pipeline)(nil)

// NewDefaultRemBG 默认的启发式去背景实现
func NewDefaultRemBG() Remover {
	return NewPipeline()
}
