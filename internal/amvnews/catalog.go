package amvnews

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/amvnews/internal/domain"
	"github.com/John-Robertt/amvnews/internal/infra/cache"
	"github.com/John-Robertt/amvnews/internal/logger"
)

const (
	// DefaultTTL 是缓存记录的有效期。
	DefaultTTL = 72 * time.Hour
	// PageSize 是站点列表页每页的条目数（page 参数是条目偏移量）。
	PageSize = 10
)

var (
	// ErrNotCached 表示对从未抓取过的 id 评分（调用方应先 Get）。
	ErrNotCached = errors.New("记录未缓存")
	// ErrGuest 表示个人列表需要登录。
	ErrGuest = errors.New("需要登录（未配置用户名或密码）")
)

// Site 是 Catalog 依赖的站点会话能力（*Client 实现）。
type Site interface {
	Fetch(ctx context.Context, params url.Values) (*goquery.Document, error)
	Do(ctx context.Context, params url.Values) error
	Base() *url.URL
	Guest() bool
}

type CatalogOptions struct {
	TTL time.Duration    // <=0 时使用 DefaultTTL
	Now func() time.Time // 测试注入
}

// Entry 是列表中的一项：完整记录加上列表页上的日期（只有精选列表有）。
type Entry struct {
	domain.AMV `yaml:",inline"`
	Date       string `json:"date,omitempty" yaml:"date,omitempty"`
}

// Catalog 负责“抓取 + 解析 + 缓存”的编排。
//
// 缓存策略：记录的 Format 等于 domain.FormatVersion 且未超过 TTL 时直接返回；
// 否则重新抓取并整体覆盖。缓存的“读-改-写”由 mu 串行化。
type Catalog struct {
	site  Site
	store cache.Store
	ttl   time.Duration
	now   func() time.Time

	mu sync.Mutex
}

func NewCatalog(site Site, store cache.Store, opts CatalogOptions) *Catalog {
	c := &Catalog{
		site:  site,
		store: store,
		ttl:   opts.TTL,
		now:   opts.Now,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Get 返回 id 的记录：有效缓存直接返回，否则抓取详情页并写回缓存。
func (c *Catalog) Get(ctx context.Context, id int) (domain.AMV, error) {
	if id <= 0 {
		return domain.AMV{}, fmt.Errorf("非法 AMV ID：%d", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(ctx, id)
}

func (c *Catalog) getLocked(ctx context.Context, id int) (domain.AMV, error) {
	cached, ok, err := c.store.Get(ctx, id)
	if err != nil {
		return domain.AMV{}, fmt.Errorf("读取缓存失败：%w", err)
	}
	if ok {
		reason := c.staleReason(cached)
		if reason == "" {
			logger.DebugContext(ctx, "缓存命中", "id", id)
			return cached, nil
		}
		logger.DebugContext(ctx, "缓存失效", "id", id, "reason", reason)
	} else {
		logger.DebugContext(ctx, "缓存未命中", "id", id)
	}

	doc, err := c.site.Fetch(ctx, detailParams(id))
	if err != nil {
		return domain.AMV{}, err
	}
	amv := ParseDetail(doc, id, c.site.Base())
	amv.FetchedAt = c.now().UTC()

	if err := c.store.Put(ctx, amv); err != nil {
		return domain.AMV{}, fmt.Errorf("写入缓存失败：%w", err)
	}
	return amv, nil
}

// staleReason 返回缓存失效原因；有效时返回空串。
func (c *Catalog) staleReason(amv domain.AMV) string {
	if amv.Format != domain.FormatVersion {
		return "version"
	}
	if c.now().Sub(amv.FetchedAt) >= c.ttl {
		return "age"
	}
	return ""
}

// SetUserRating 向站点提交评分（1..5），然后只更新缓存记录的 UserRating。
//
// 前置条件：id 已在缓存中（无论是否过期），否则返回 ErrNotCached 且不发出请求。
func (c *Catalog) SetUserRating(ctx context.Context, id, mark int) error {
	if mark < 1 || mark > 5 {
		return fmt.Errorf("评分必须在 1..5 之间：%d", mark)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok, err := c.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("读取缓存失败：%w", err)
	}
	if !ok {
		return fmt.Errorf("%w：id=%d", ErrNotCached, id)
	}

	if err := c.site.Do(ctx, url.Values{
		"go":   {"Files"},
		"in":   {"ajaxreiting"},
		"id":   {strconv.Itoa(id)},
		"vote": {strconv.Itoa(mark)},
	}); err != nil {
		return err
	}

	cached.Info.UserRating = float64(mark)
	if err := c.store.Put(ctx, cached); err != nil {
		return fmt.Errorf("写入缓存失败：%w", err)
	}
	logger.InfoContext(ctx, "已评分", "id", id, "mark", mark)
	return nil
}

// AddToFavourites 把 id 加入站点收藏（不改本地状态）。
func (c *Catalog) AddToFavourites(ctx context.Context, id int) error {
	return c.site.Do(ctx, url.Values{"go": {"Files"}, "in": {"addfav"}, "id": {strconv.Itoa(id)}})
}

// RemoveFromFavourites 把 id 移出站点收藏（不改本地状态）。
func (c *Catalog) RemoveFromFavourites(ctx context.Context, id int) error {
	return c.site.Do(ctx, url.Values{"go": {"Files"}, "in": {"delfav"}, "id": {strconv.Itoa(id)}})
}

// ListFeatured 返回精选列表第 page 页（从 1 开始），每项都经过 Get（顺带填充缓存）。
func (c *Catalog) ListFeatured(ctx context.Context, page int) ([]Entry, error) {
	if err := checkPage(page); err != nil {
		return nil, err
	}
	doc, err := c.site.Fetch(ctx, url.Values{
		"go":   {"News"},
		"in":   {"cat"},
		"id":   {"1"},
		"page": {offset(page)},
	})
	if err != nil {
		return nil, err
	}
	return c.resolve(ctx, ParseFeatured(doc))
}

// ListEvaluated 返回当前用户评过分的 AMV（第 page 页）。
func (c *Catalog) ListEvaluated(ctx context.Context, page int) ([]Entry, error) {
	return c.listPersonal(ctx, "myvotes", page)
}

// ListFavourite 返回当前用户收藏的 AMV（第 page 页）。
func (c *Catalog) ListFavourite(ctx context.Context, page int) ([]Entry, error) {
	return c.listPersonal(ctx, "myfav", page)
}

func (c *Catalog) listPersonal(ctx context.Context, in string, page int) ([]Entry, error) {
	if err := checkPage(page); err != nil {
		return nil, err
	}
	if c.site.Guest() {
		return nil, ErrGuest
	}
	doc, err := c.site.Fetch(ctx, url.Values{
		"go":   {"Files"},
		"in":   {in},
		"page": {offset(page)},
	})
	if err != nil {
		return nil, err
	}
	return c.resolve(ctx, ParseFileList(doc))
}

func (c *Catalog) resolve(ctx context.Context, refs []ListingRef) ([]Entry, error) {
	out := make([]Entry, 0, len(refs))
	for _, ref := range refs {
		amv, err := c.Get(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("id=%d：%w", ref.ID, err)
		}
		out = append(out, Entry{AMV: amv, Date: ref.Date})
	}
	return out, nil
}

func detailParams(id int) url.Values {
	return url.Values{"go": {"Files"}, "in": {"view"}, "id": {strconv.Itoa(id)}}
}

func checkPage(page int) error {
	if page < 1 {
		return fmt.Errorf("页码从 1 开始：%d", page)
	}
	return nil
}

func offset(page int) string {
	return strconv.Itoa((page - 1) * PageSize)
}
