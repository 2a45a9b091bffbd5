package amvnews

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/John-Robertt/amvnews/internal/infra/httpx"
	"github.com/John-Robertt/amvnews/internal/logger"
)

// DefaultBaseURL 是站点唯一的入口地址；所有动作都是它加查询参数。
const DefaultBaseURL = "http://amvnews.ru/index.php"

// loginMarker 是登录表单里固定的 login 字段值（原样发送，表单编码时会再转义一次）。
const loginMarker = "%C2%EE%E9%F2%E8..."

// HTTPStatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d：%s", e.StatusCode, e.URL)
}

// Options 配置 Client。
type Options struct {
	BaseURL  string // 为空时使用 DefaultBaseURL
	Username string // 为空表示游客会话
	Password string

	// HTTPClient 用于页面与站点动作；为空时按 httpx 默认策略构造。
	HTTPClient *http.Client
	// DownloadClient 用于大文件下载；为空时复用 HTTPClient。
	DownloadClient *http.Client
}

// Client 是一个已登录（或游客）的站点会话。
//
// 约束：
// - 构造时登录一次，之后复用同一个 cookie jar
// - 不做缓存（缓存在 Catalog），不做错误翻译（传输错误原样上抛）
type Client struct {
	base     *url.URL
	http     *http.Client
	download *http.Client
	guest    bool
}

// NewClient 构造会话并立即登录。
//
// 登录失败（传输错误或非 2xx）直接返回错误：该会话不可用。
// 凭据为空时仍然发送登录请求，之后的评分/收藏以游客身份进行。
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("非法站点地址：%w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("非法站点地址：%q", raw)
	}

	hc := opts.HTTPClient
	if hc == nil {
		jar, err := httpx.NewJar()
		if err != nil {
			return nil, err
		}
		hc, err = httpx.NewSiteClient("", jar)
		if err != nil {
			return nil, err
		}
	} else if hc.Jar == nil {
		jar, err := httpx.NewJar()
		if err != nil {
			return nil, err
		}
		cp := *hc
		cp.Jar = jar
		hc = &cp
	}
	dc := opts.DownloadClient
	if dc == nil {
		dc = hc
	}

	c := &Client{
		base:     base,
		http:     hc,
		download: dc,
		guest:    strings.TrimSpace(opts.Username) == "" || opts.Password == "",
	}
	if err := c.login(ctx, opts.Username, opts.Password); err != nil {
		return nil, fmt.Errorf("登录失败：%w", err)
	}
	if c.guest {
		logger.Info("以游客身份访问站点")
	} else {
		logger.Info("已登录站点", "user", opts.Username)
	}
	return c, nil
}

func (c *Client) login(ctx context.Context, username, password string) error {
	form := url.Values{
		"user_name":     {username},
		"user_password": {password},
		"login":         {loginMarker},
	}
	u := c.URL(url.Values{"go": {"Members"}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}
	return nil
}

// Guest 表示会话没有凭据（评分/收藏/个人列表对站点无效）。
func (c *Client) Guest() bool { return c.guest }

// Base 返回站点入口地址（用于解析页面中的相对链接）。
func (c *Client) Base() *url.URL {
	u := *c.base
	return &u
}

// URL 返回入口地址加上 params 的完整 URL。
func (c *Client) URL(params url.Values) string {
	u := *c.base
	u.RawQuery = params.Encode()
	return u.String()
}

// VideoURL 返回 AMV 主视频文件的下载地址。
func (c *Client) VideoURL(id int) string {
	return c.URL(url.Values{"go": {"Files"}, "file": {"down"}, "id": {strconv.Itoa(id)}})
}

// SubtitlesURL 返回字幕文件的下载地址。
func (c *Client) SubtitlesURL(subtitleID int) string {
	return c.URL(url.Values{"go": {"Files"}, "file": {"down"}, "sub": {strconv.Itoa(subtitleID)}})
}

// Fetch 以 GET 请求 params 对应的页面，并解析为 DOM。
func (c *Client) Fetch(ctx context.Context, params url.Values) (*goquery.Document, error) {
	u := c.URL(params)
	logger.DebugContext(ctx, "抓取页面", "url", u)

	resp, err := c.get(ctx, c.http, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	r, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(r)
}

// Do 发送一个“只管发出”的站点动作（评分/收藏），丢弃响应内容。
// 动作不是幂等的：请求只发一次，失败不重试。
func (c *Client) Do(ctx context.Context, params url.Values) error {
	u := c.URL(params)
	logger.DebugContext(ctx, "站点动作", "url", u)

	resp, err := c.get(httpx.WithoutRetry(ctx), c.http, u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Open 以下载 client 打开 rawURL；调用方负责关闭 Body。
func (c *Client) Open(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.get(ctx, c.download, rawURL)
}

func (c *Client) get(ctx context.Context, hc *http.Client, u string) (*http.Response, error) {
	if hc == nil {
		return nil, errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// decodeBody 把响应体转换为 UTF-8。
//
// 规则：
// - Content-Type 带 charset：按它解码
// - 否则看 BOM / <meta>；仍不确定时按 windows-1251（站点的历史编码）而不是 windows-1252
func decodeBody(resp *http.Response) (io.Reader, error) {
	ct := resp.Header.Get("Content-Type")
	if _, params, err := mime.ParseMediaType(ct); err == nil && params["charset"] != "" {
		return charset.NewReaderLabel(params["charset"], resp.Body)
	}

	br := bufio.NewReader(resp.Body)
	peek, _ := br.Peek(1024)
	enc, name, certain := charset.DetermineEncoding(peek, ct)
	if !certain && name == "windows-1252" {
		enc = charmap.Windows1251
	}
	return transform.NewReader(br, enc.NewDecoder()), nil
}
