package http

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/http.go -package=mocks . IClient
type IClient interface {
	DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error
}

// RequestParam Body 可以是 nil、io.Reader、[]byte，其它类型按 JSON 编码；
// Response 为 *[]byte 时保存原始响应体，其它非 nil 值按 JSON 解码
type RequestParam struct {
	RequestURI string
	Method     string
	Header     map[string]string
	Body       interface{}
	Response   interface{}

	Timeout time.Duration
}
