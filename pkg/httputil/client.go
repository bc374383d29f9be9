package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ErrHTTPStatus 服务端返回了非 2xx 状态码
var ErrHTTPStatus = errors.New("unexpected http status")

// StatusError 携带状态码的 HTTP 错误
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request %s failed with status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// Options 客户端参数
type Options struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	RequestsPerSecond float64 // 0 表示不限速
	UserAgent         string
}

// DefaultOptions 与 lrclib 客户端原有的重试参数一致
func DefaultOptions() Options {
	return Options{
		Timeout:      5 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 500 * time.Millisecond,
		UserAgent:    "lyrics-backend/1.0",
	}
}

// Client 带重试和限速的 HTTP 客户端，各歌词源共用
type Client struct {
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
	userAgent    string
	name         string
}

// NewClient 创建客户端，name 只用于日志
func NewClient(name string, opts Options) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: opts.Timeout},
		maxRetries:   opts.MaxRetries,
		retryBackoff: opts.RetryBackoff,
		userAgent:    opts.UserAgent,
		name:         name,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// Do 发送请求，5xx 和连接错误会重试，4xx 直接返回 StatusError
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Info().Str("provider", c.name).Int("attempt", attempt).Int("max_retries", c.maxRetries).Msg("Retrying request")
			if err := sleep(req.Context(), time.Duration(attempt)*c.retryBackoff); err != nil {
				return nil, err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
		}

		resp, err := c.httpClient.Do(req.Clone(req.Context()))
		if err != nil {
			if req.Context().Err() != nil {
				return nil, err
			}
			log.Warn().Str("provider", c.name).Err(err).Int("attempt", attempt+1).Msg("Request failed")
			lastErr = err
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, lastErr
		}
		log.Warn().Str("provider", c.name).Int("status", resp.StatusCode).Int("attempt", attempt+1).Msg("Request returned bad status")
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// Get 发送带上下文的 GET 请求并读取响应体
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
