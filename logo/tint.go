package logo

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Variant 输出版本名
type Variant string

const (
	Transparent Variant = "transparent"
	White       Variant = "white"
	Black       Variant = "black"
)

// Tint 额外的单色版本，和白/黑版本一样只替换 RGB
type Tint struct {
	Name  Variant
	Color color.NRGBA
}

// ParseTint 解析 "#ff8800"、"ff8800" 或 "#f80"
func ParseTint(s string) (Tint, error) {
	hex := strings.TrimSpace(s)
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Tint{}, fmt.Errorf("parse tint %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Tint{
		Name:  Variant("tint-" + strings.TrimPrefix(c.Hex(), "#")),
		Color: color.NRGBA{R: r, G: g, B: b, A: 255},
	}, nil
}

// ParseTints 逐个解析，遇错即返回
func ParseTints(list []string) ([]Tint, error) {
	tints := make([]Tint, 0, len(list))
	for _, s := range list {
		t, err := ParseTint(s)
		if err != nil {
			return nil, err
		}
		tints = append(tints, t)
	}
	return tints, nil
}
