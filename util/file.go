package util

import (
	"context"
	"fmt"
	"os"
	"strings"

	nhttp "github.com/chaos-io/logokit/util/http"
)

// IsURL 判断输入是否为 http(s) 地址
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// DownloadImage 下载图片原始字节
func DownloadImage(ctx context.Context, cli nhttp.IClient, url string) ([]byte, error) {
	var data []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: url,
		Method:     "GET",
		Response:   &data,
	}
	if err := cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	return data, nil
}

// OpenImage 读取本地图片原始字节
func OpenImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return data, nil
}

// ReadSource 本地路径或 URL 都可以
func ReadSource(ctx context.Context, cli nhttp.IClient, src string) ([]byte, error) {
	if IsURL(src) {
		return DownloadImage(ctx, cli, src)
	}
	return OpenImage(src)
}
