package logo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	// 注册解码器，webp 来自 x/image
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var (
	ErrDecode = errors.New("decode failure")
	ErrEncode = errors.New("encode failure")
)

// decode 从字节解码图片，返回格式名（png、jpeg、webp、gif）
func decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// encodePNG 输出总是 PNG，保证有 alpha 通道
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}
