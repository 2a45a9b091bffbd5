package planner

import (
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/John-Robertt/amvnews/internal/domain"
	"github.com/John-Robertt/amvnews/internal/infra/fsx"
)

const (
	DefaultMediaExt    = ".mp4"
	DefaultSubtitleExt = ".srt"
	DefaultImageExt    = ".jpg"
)

// SentinelName 返回某个 AMV 的完成标记文件名（<id>.sync）。
func SentinelName(id int) string {
	return strconv.Itoa(id) + ".sync"
}

// ReadState 读取下载目录中与 id 相关的现状（只看标记文件是否存在）。
// 若 dest 不存在，返回空状态且不报错。
func ReadState(fs afero.Fs, dest string, id int) (domain.SyncState, error) {
	ok, err := fsx.Exists(fs, dest, SentinelName(id))
	if err != nil {
		return domain.SyncState{}, err
	}
	return domain.SyncState{Dir: dest, HasSentinel: ok}, nil
}

// Plan 基于记录生成确定性的下载计划（不做任何 I/O）。
//
// 命名规则：
// - 主视频与字幕：<id>.<ext>（同名，播放器自动关联字幕）
// - 图片：<id>-poster.<ext>、<id>-fanart.<ext>
// - 描述文件：<id>.nfo；完成标记：<id>.sync
func Plan(amv domain.AMV, videoURL, subtitleURL string) domain.DownloadPlan {
	base := strconv.Itoa(amv.ID)
	p := domain.DownloadPlan{
		ID: amv.ID,
		Media: domain.Artifact{
			Kind:       domain.KindMedia,
			URL:        videoURL,
			Base:       base,
			DefaultExt: DefaultMediaExt,
		},
		NFOName:  base + ".nfo",
		Sentinel: SentinelName(amv.ID),
	}

	if u := strings.TrimSpace(amv.Image()); u != "" {
		p.Images = append(p.Images, domain.Artifact{
			Kind: domain.KindPoster, URL: u, Base: base + "-poster", DefaultExt: DefaultImageExt,
		})
	}
	if u := strings.TrimSpace(amv.Fanart()); u != "" {
		p.Images = append(p.Images, domain.Artifact{
			Kind: domain.KindFanart, URL: u, Base: base + "-fanart", DefaultExt: DefaultImageExt,
		})
	}

	if strings.TrimSpace(subtitleURL) != "" {
		p.Subtitle = &domain.Artifact{
			Kind:       domain.KindSubtitle,
			URL:        subtitleURL,
			Base:       base,
			DefaultExt: DefaultSubtitleExt,
		}
	}
	return p
}
