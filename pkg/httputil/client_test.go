package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(maxRetries int, timeout time.Duration) *Client {
	return NewClient("test", Options{
		Timeout:      timeout,
		MaxRetries:   maxRetries,
		RetryBackoff: 10 * time.Millisecond,
	})
}

// TestClientRetry 测试重试机制
func TestClientRetry(t *testing.T) {
	var requestCount int32

	// 前两次请求失败，第三次成功
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"result":{"songs":[{"id":123,"name":"Test Song","artists":[{"name":"Test Artist"}]}]}}`))
	}))
	defer server.Close()

	client := testClient(3, time.Second)

	req, err := http.NewRequest("GET", server.URL, nil)
	if err != nil {
		t.Fatalf("创建请求失败: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	if got := atomic.LoadInt32(&requestCount); got != 3 {
		t.Errorf("预期请求次数为3，实际为%d", got)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("预期状态码200，实际为%d", resp.StatusCode)
	}
}

// TestClientNoRetryOn4xx 4xx 不重试
func TestClientNoRetryOn4xx(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(3, time.Second)
	_, err := client.Get(context.Background(), server.URL, nil)
	if err == nil {
		t.Fatal("预期返回错误")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("预期 StatusError 404，实际为 %v", err)
	}
	if !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("预期错误可识别为 ErrHTTPStatus")
	}
	if got := atomic.LoadInt32(&requestCount); got != 1 {
		t.Errorf("预期只请求1次，实际为%d", got)
	}
}

// TestTimeout 测试超时机制
func TestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(1, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", server.URL, nil)
	if err != nil {
		t.Fatalf("创建请求失败: %v", err)
	}

	if _, err = client.Do(req); err == nil {
		t.Error("预期请求超时失败，但请求成功了")
	}
}
