package logo

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxFileSize 单个文件上限 10MB
const DefaultMaxFileSize int64 = 10 << 20

var (
	ErrEmptyFile         = errors.New("empty file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

var supportedFormats = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// Validator 按内容嗅探格式并检查大小
type Validator struct {
	maxSize int64
}

// NewValidator maxSize <= 0 时用默认值
func NewValidator(maxSize int64) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Validator{maxSize: maxSize}
}

// Validate 返回嗅探到的 MIME 类型
func (v *Validator) Validate(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if int64(len(data)) > v.maxSize {
		return "", fmt.Errorf("%w: %d bytes, max %dMB", ErrFileTooLarge, len(data), v.maxSize>>20)
	}

	mime := mimetype.Detect(data)
	for _, f := range supportedFormats {
		if mime.Is(f) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %s, use one of %v", ErrUnsupportedFormat, mime.String(), supportedFormats)
}

func (v *Validator) SupportedFormats() []string {
	return slices.Clone(supportedFormats)
}

func (v *Validator) MaxFileSize() int64 {
	return v.maxSize
}
