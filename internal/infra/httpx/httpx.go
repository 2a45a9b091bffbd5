package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/net/publicsuffix"
)

const (
	// UserAgent 是站点会话使用的固定 UA（不对外暴露配置）。
	UserAgent = "AppleWebKit/537.36 (KHTML, like Gecko)"

	defaultTimeout    = 20 * time.Second
	defaultRetryMax   = 2
	defaultRetryDelay = 300 * time.Millisecond
)

type noRetryKey struct{}

// WithoutRetry 标记 ctx 上的请求只发一次（即使是 GET）。
// 用于评分/收藏这类非幂等的站点动作。
func WithoutRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRetryKey{}, true)
}

func retryDisabled(ctx context.Context) bool {
	v, _ := ctx.Value(noRetryKey{}).(bool)
	return v
}

// Transport 把“固定 UA + 代理 + 有界重试”固化为统一策略。
//
// 只对可重放的请求（GET/HEAD 且无 body）重试；登录等 POST 请求只发一次，
// 经 WithoutRetry 标记的请求也只发一次。
type Transport struct {
	Base *http.Transport

	// RetryMax 表示最大重试次数（不含首次尝试）。例如 2 表示最多 3 次尝试。
	RetryMax   int
	RetryDelay time.Duration
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	canRetry := (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil &&
		!retryDisabled(req.Context())
	max := t.RetryMax
	if max < 0 || !canRetry {
		max = 0
	}

	var resp *http.Response
	err := retry.Do(
		func() error {
			r := req.Clone(req.Context())
			r.Header.Set("User-Agent", UserAgent)
			out, err := t.Base.RoundTrip(r)
			if err != nil {
				return err
			}
			resp = out
			return nil
		},
		retry.Attempts(uint(max+1)),
		retry.Delay(t.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(req.Context()),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// NewJar 构造会话 cookie jar；站点客户端与下载客户端共享同一个 jar（登录态一致）。
func NewJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// NewSiteClient 构造用于页面抓取与站点动作（登录/评分/收藏）的 HTTP client。
//
// 规则：
// - proxyURL 非空：走代理
// - 固定 UA；GET 有界重试；总超时
func NewSiteClient(proxyURL string, jar http.CookieJar) (*http.Client, error) {
	tr, err := newTransport(strings.TrimSpace(proxyURL))
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: tr,
		Jar:       jar,
		Timeout:   defaultTimeout,
	}, nil
}

// NewDownloadClient 构造用于视频/图片/字幕下载的 HTTP client。
//
// 与 NewSiteClient 的区别：没有总超时（大文件流式下载可能持续很久），
// 只依赖握手与响应头超时。
func NewDownloadClient(proxyURL string, jar http.CookieJar) (*http.Client, error) {
	tr, err := newTransport(strings.TrimSpace(proxyURL))
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: tr,
		Jar:       jar,
	}, nil
}

func newTransport(proxyURL string) (*Transport, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
	}

	return &Transport{
		Base:       base,
		RetryMax:   defaultRetryMax,
		RetryDelay: defaultRetryDelay,
	}, nil
}
