package music

import (
	"errors"
	"net"
	"net/url"

	"lyrics-backend/pkg/httputil"
)

var (
	// ErrLyricsNotFound 歌曲没有歌词，自动获取时会尝试下一个候选
	ErrLyricsNotFound = errors.New("lyrics not found")
	// ErrSearch 搜索接口返回了无法解析或错误的结果
	ErrSearch = errors.New("search failed")
	// ErrUnknownSource 未注册的歌词源
	ErrUnknownSource = errors.New("unknown lyrics source")
	// ErrNetwork 网络/HTTP 层面的错误
	ErrNetwork = errors.New("network error")
)

// IsNetworkError 判断错误是否为连接或 HTTP 状态错误
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNetwork) || errors.Is(err, httputil.ErrHTTPStatus) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
