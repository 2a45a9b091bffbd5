package download

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/John-Robertt/amvnews/internal/app/planner"
	"github.com/John-Robertt/amvnews/internal/domain"
	"github.com/John-Robertt/amvnews/internal/infra/fsx"
	"github.com/John-Robertt/amvnews/internal/infra/imgx"
	"github.com/John-Robertt/amvnews/internal/logger"
	"github.com/John-Robertt/amvnews/internal/nfo"
)

const (
	// ChunkSize 是流式写盘的块大小（限制大文件下载的内存占用）。
	ChunkSize = 32 * 1024

	sniffLen = 3072
	// maxImageBytes 限制单张图片的读取量（图片需要整块读入做格式嗅探）。
	maxImageBytes = 20 << 20
)

// ErrNoDestination 表示没有配置下载目录。
var ErrNoDestination = errors.New("未配置下载目录")

// Source 是下载所需的站点能力（*amvnews.Client 实现）。
type Source interface {
	Open(ctx context.Context, rawURL string) (*http.Response, error)
	VideoURL(id int) string
	SubtitlesURL(subtitleID int) string
}

// Syncer 把一个 AMV 同步到下载目录。
//
// 执行顺序固定：标记检查 -> 主视频 -> nfo -> 图片（≤2）-> 字幕 -> 标记文件。
// 每个产物都是“同目录临时文件 + rename”写入；任一步失败都不会写标记文件，
// 下次调用会完整重做（不做断点续传）。
type Syncer struct {
	Fs       afero.Fs
	Source   Source
	Observer Observer
}

// Sync 执行下载。subtitleID<=0 表示不下载字幕。
// 标记文件已存在时整次操作为空操作（不发出任何请求，不校验已有文件）。
func (s *Syncer) Sync(ctx context.Context, dest string, amv domain.AMV, subtitleID int) (rep domain.SyncReport, err error) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return domain.SyncReport{}, ErrNoDestination
	}
	if s.Fs == nil || s.Source == nil {
		return domain.SyncReport{}, errors.New("download: Fs/Source 不能为空")
	}
	obs := s.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	log := logger.With("id", amv.ID, "dest", dest)
	rep = domain.SyncReport{ID: amv.ID, Dest: dest, StartedAt: time.Now()}
	defer func() {
		rep.FinishedAt = time.Now()
		rep.Finalize()
		if err != nil {
			log.Error("下载失败，未写标记文件", "files", len(rep.Files), "err", err)
		}
	}()

	st, err := planner.ReadState(s.Fs, dest, amv.ID)
	if err != nil {
		return rep, fmt.Errorf("读取下载目录失败：%w", err)
	}
	if st.HasSentinel {
		rep.Skipped = true
		obs.OnSkip(amv.ID, "already_synced")
		log.Info("已下载，跳过")
		return rep, nil
	}
	if err := fsx.EnsureDir(s.Fs, dest); err != nil {
		return rep, err
	}

	subURL := ""
	if subtitleID > 0 {
		subURL = s.Source.SubtitlesURL(subtitleID)
	}
	plan := planner.Plan(amv, s.Source.VideoURL(amv.ID), subURL)
	obs.OnStart(amv.ID, dest)

	done := func(kind, name string, n int64, started time.Time) {
		rep.Files = append(rep.Files, domain.FileResult{Kind: kind, Name: name, Bytes: n})
		obs.OnArtifactDone(amv.ID, kind, name, n, time.Since(started))
		log.DebugContext(ctx, "产物已写入", "kind", kind, "name", name, "bytes", n)
	}

	// 主视频
	t0 := time.Now()
	name, n, err := s.stream(ctx, dest, plan.Media, true)
	if err != nil {
		return rep, fmt.Errorf("下载视频失败：%w", err)
	}
	done(domain.KindMedia, name, n, t0)

	// nfo
	t0 = time.Now()
	b, err := nfo.Encode(amv)
	if err != nil {
		return rep, err
	}
	if err := fsx.WriteFileAtomicReplace(s.Fs, dest, plan.NFOName, b); err != nil {
		return rep, fmt.Errorf("写入 nfo 失败：%w", err)
	}
	done(domain.KindNFO, plan.NFOName, int64(len(b)), t0)

	// 图片
	for _, img := range plan.Images {
		t0 = time.Now()
		name, n, err := s.image(ctx, dest, img)
		if err != nil {
			return rep, fmt.Errorf("下载图片失败（%s）：%w", img.Kind, err)
		}
		done(img.Kind, name, n, t0)
	}

	// 字幕
	if plan.Subtitle != nil {
		t0 = time.Now()
		name, n, err := s.stream(ctx, dest, *plan.Subtitle, false)
		if err != nil {
			return rep, fmt.Errorf("下载字幕失败：%w", err)
		}
		done(domain.KindSubtitle, name, n, t0)
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}

	// 标记文件最后写：它的存在代表以上产物全部完成。
	t0 = time.Now()
	if err := fsx.WriteFileAtomicReplace(s.Fs, dest, plan.Sentinel, nil); err != nil {
		return rep, fmt.Errorf("写入标记文件失败：%w", err)
	}
	done(domain.KindSentinel, plan.Sentinel, 0, t0)

	log.InfoContext(ctx, "下载完成", "bytes", rep.Total())
	return rep, nil
}

func (s *Syncer) stream(ctx context.Context, dest string, a domain.Artifact, sniff bool) (string, int64, error) {
	resp, err := s.Source.Open(ctx, a.URL)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	br := bufio.NewReaderSize(resp.Body, ChunkSize)
	var head []byte
	if sniff {
		head, _ = br.Peek(sniffLen)
	}
	name := a.Base + artifactExt(resp, head, a.DefaultExt)

	n, err := fsx.WriteStreamAtomic(s.Fs, dest, name, br, make([]byte, ChunkSize))
	if err != nil {
		return "", n, err
	}
	return name, n, nil
}

func (s *Syncer) image(ctx context.Context, dest string, a domain.Artifact) (string, int64, error) {
	resp, err := s.Source.Open(ctx, a.URL)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", 0, err
	}
	ext, err := imgx.Ext(data)
	if err != nil {
		return "", 0, err
	}
	name := a.Base + ext
	if err := fsx.WriteFileAtomicReplace(s.Fs, dest, name, data); err != nil {
		return "", 0, err
	}
	return name, int64(len(data)), nil
}

var extRE = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)

// 动态页面的后缀不是产物格式。
var pageExts = map[string]struct{}{
	".php": {}, ".html": {}, ".htm": {}, ".asp": {}, ".aspx": {},
}

// artifactExt 决定产物扩展名：
// Content-Disposition 的 filename > 最终 URL 的路径后缀 > 内容嗅探（仅音视频）> def。
func artifactExt(resp *http.Response, head []byte, def string) string {
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if ext := cleanExt(path.Ext(params["filename"])); ext != "" {
			return ext
		}
	}
	if resp.Request != nil && resp.Request.URL != nil {
		if ext := cleanExt(path.Ext(resp.Request.URL.Path)); ext != "" {
			return ext
		}
	}
	if len(head) > 0 {
		m := mimetype.Detect(head)
		if strings.HasPrefix(m.String(), "video/") || strings.HasPrefix(m.String(), "audio/") {
			if ext := cleanExt(m.Extension()); ext != "" {
				return ext
			}
		}
	}
	return def
}

func cleanExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !extRE.MatchString(ext) {
		return ""
	}
	if _, ok := pageExts[ext]; ok {
		return ""
	}
	return ext
}
