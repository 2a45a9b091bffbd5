package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNewSiteClient_Proxy(t *testing.T) {
	c, err := NewSiteClient("http://127.0.0.1:8080", nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	tr, ok := c.Transport.(*Transport)
	if !ok {
		t.Fatalf("期望 *Transport，实际 %T", c.Transport)
	}
	if tr.Base.Proxy == nil {
		t.Fatalf("期望启用代理，但 Proxy=nil")
	}
	if c.Timeout == 0 {
		t.Fatalf("站点 client 应设置总超时")
	}
}

func TestNewDownloadClient_NoTotalTimeout(t *testing.T) {
	c, err := NewDownloadClient("", nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	tr := c.Transport.(*Transport)
	if tr.Base.Proxy != nil {
		t.Fatalf("不期望启用代理，但 Proxy!=nil")
	}
	if c.Timeout != 0 {
		t.Fatalf("下载 client 不应设置总超时，实际 %s", c.Timeout)
	}
}

func TestNewSiteClient_InvalidProxyURL(t *testing.T) {
	_, err := NewSiteClient("http://[::1", nil)
	if err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}

func TestTransport_FixedUserAgent(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.UserAgent())
	}))
	defer srv.Close()

	c, err := NewSiteClient("", nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "custom")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()

	if got.Load() != UserAgent {
		t.Fatalf("期望固定 UA %q，实际 %q", UserAgent, got.Load())
	}
}

type flakyRoundTripper struct {
	fails int32
	calls int32
}

func (f *flakyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.fails {
		return nil, errors.New("connection reset")
	}
	return &http.Response{StatusCode: 200, Body: http.NoBody, Request: req}, nil
}

func TestTransport_RetryOnlyIdempotent(t *testing.T) {
	// GET：2 次失败后成功。
	flaky := &flakyRoundTripper{fails: 2}
	tr := &Transport{Base: &http.Transport{}, RetryMax: 2}
	tr.Base.RegisterProtocol("flaky", flaky)

	req, _ := http.NewRequest(http.MethodGet, "flaky://site/index.php", nil)
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp.Body.Close()
	if atomic.LoadInt32(&flaky.calls) != 3 {
		t.Fatalf("期望 3 次尝试，实际 %d", flaky.calls)
	}

	// POST：不重试。
	flaky2 := &flakyRoundTripper{fails: 1}
	tr2 := &Transport{Base: &http.Transport{}, RetryMax: 2}
	tr2.Base.RegisterProtocol("flaky", flaky2)

	req2, _ := http.NewRequest(http.MethodPost, "flaky://site/index.php", strings.NewReader("a=b"))
	if _, err := tr2.RoundTrip(req2); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if atomic.LoadInt32(&flaky2.calls) != 1 {
		t.Fatalf("POST 不应重试，实际调用 %d 次", flaky2.calls)
	}
}

func TestTransport_WithoutRetry(t *testing.T) {
	flaky := &flakyRoundTripper{fails: 1}
	tr := &Transport{Base: &http.Transport{}, RetryMax: 2}
	tr.Base.RegisterProtocol("flaky", flaky)

	req, _ := http.NewRequestWithContext(WithoutRetry(context.Background()), http.MethodGet, "flaky://site/index.php?go=Files", nil)
	if _, err := tr.RoundTrip(req); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if got := atomic.LoadInt32(&flaky.calls); got != 1 {
		t.Fatalf("标记为不重试的 GET 只应发一次，实际调用 %d 次", got)
	}
}
