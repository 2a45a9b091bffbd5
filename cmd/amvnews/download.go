package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/amvnews/internal/app/download"
	"github.com/John-Robertt/amvnews/internal/app/planner"
	"github.com/John-Robertt/amvnews/internal/domain"
	"github.com/John-Robertt/amvnews/internal/logger"
)

func newDownloadCmd(a *app) *cobra.Command {
	var noSubs bool
	cmd := &cobra.Command{
		Use:   "download ID",
		Short: "把作品同步到下载目录（已同步则跳过）",
		Long: `下载视频、nfo、图片与字幕到 download_path，最后写入 <ID>.sync 标记文件。
标记文件存在时不发出任何请求；中途失败时不写标记，下次重新完整下载。

stdout 不是终端时只输出一个 JSON 报告（进度与摘要走 stderr）。`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			dest := strings.TrimSpace(a.settings.DownloadPath)
			if dest == "" {
				return download.ErrNoDestination
			}
			// 已同步：不登录，不读缓存，不发请求。
			if rep, ok, err := a.alreadySynced(dest, id); err != nil || ok {
				if err != nil {
					return err
				}
				return a.emitReport(rep)
			}

			ctx := cmd.Context()
			sess, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			rep, err := a.syncOne(ctx, sess, id, !noSubs)
			if err != nil {
				return err
			}
			return a.emitReport(rep)
		},
	}
	cmd.Flags().BoolVar(&noSubs, "no-subtitles", false, "不下载字幕")
	return cmd
}

// syncOne 取 id 的记录（优先缓存）并同步到下载目录。
func (a *app) syncOne(ctx context.Context, sess *session, id int, withSubs bool) (domain.SyncReport, error) {
	dest := strings.TrimSpace(a.settings.DownloadPath)
	if dest == "" {
		return domain.SyncReport{}, download.ErrNoDestination
	}
	if rep, ok, err := a.alreadySynced(dest, id); err != nil || ok {
		return rep, err
	}
	amv, err := sess.catalog.Get(ctx, id)
	if err != nil {
		return domain.SyncReport{}, err
	}

	subID := 0
	if withSubs {
		if sid, ok := domain.ChooseSubtitle(amv.Subtitles, a.settings.SubtitleLanguage()); ok {
			subID = sid
		}
	}

	var obs download.Observer
	if w, ok := a.progressWriter(); ok {
		ui := newProgressUI(w)
		defer ui.Finish()
		obs = ui
	}

	s := &download.Syncer{Fs: a.fs, Source: sess.client, Observer: obs}
	return s.Sync(ctx, dest, amv, subID)
}

// alreadySynced 在任何站点请求之前检查标记文件；存在时返回跳过报告。
func (a *app) alreadySynced(dest string, id int) (domain.SyncReport, bool, error) {
	st, err := planner.ReadState(a.fs, dest, id)
	if err != nil {
		return domain.SyncReport{}, false, fmt.Errorf("读取下载目录失败：%w", err)
	}
	if !st.HasSentinel {
		return domain.SyncReport{}, false, nil
	}
	now := time.Now()
	rep := domain.SyncReport{ID: id, Dest: dest, Skipped: true, StartedAt: now, FinishedAt: now}
	rep.Finalize()
	logger.Info("已下载，跳过", "id", id, "dest", dest)
	return rep, true, nil
}

// emitReport：stdout 是终端时输出摘要；否则 stdout 只输出一个 SyncReport JSON，摘要走 stderr。
func (a *app) emitReport(rep domain.SyncReport) error {
	if isTTY(a.stdout) {
		return writeSummary(a.stdout, rep)
	}
	if err := json.NewEncoder(a.stdout).Encode(rep); err != nil {
		return err
	}
	return writeSummary(a.stderr, rep)
}

func writeSummary(w io.Writer, rep domain.SyncReport) error {
	if rep.Skipped {
		_, err := fmt.Fprintf(w, "已同步，跳过：#%d（%s）\n", rep.ID, rep.Dest)
		return err
	}
	_, err := fmt.Fprintf(w, "完成：#%d files=%d size=%s dest=%s\n",
		rep.ID, len(rep.Files), humanize.IBytes(uint64(rep.Total())), rep.Dest,
	)
	return err
}

// progressWriter 只在交互终端启用进度输出；默认走 stderr（不污染 stdout JSON）。
func (a *app) progressWriter() (io.Writer, bool) {
	if isTTY(a.stderr) {
		return a.stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(a.stdout) {
		return a.stdout, true
	}
	return nil, false
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

type playURLs struct {
	ID        int    `json:"id" yaml:"id"`
	Video     string `json:"video" yaml:"video"`
	Subtitles string `json:"subtitles,omitempty" yaml:"subtitles,omitempty"`
}

func newPlayURLCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "play-url ID",
		Short: "输出播放地址（视频与按偏好语言挑选的字幕）",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(cmd, args[0])
			if err != nil {
				return err
			}
			if err := checkFormat(cmd, format); err != nil {
				return err
			}

			ctx := cmd.Context()
			sess, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			amv, err := sess.catalog.Get(ctx, id)
			if err != nil {
				return err
			}
			out := playURLs{ID: id, Video: sess.client.VideoURL(id)}
			if sid, ok := domain.ChooseSubtitle(amv.Subtitles, a.settings.SubtitleLanguage()); ok {
				out.Subtitles = sess.client.SubtitlesURL(sid)
			}
			return render(a.stdout, format, out, func(w io.Writer) error {
				if _, err := fmt.Fprintf(w, "video: %s\n", out.Video); err != nil {
					return err
				}
				if out.Subtitles != "" {
					_, err := fmt.Fprintf(w, "subtitles: %s\n", out.Subtitles)
					return err
				}
				return nil
			})
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}
