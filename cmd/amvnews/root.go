package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/John-Robertt/amvnews/internal/amvnews"
	"github.com/John-Robertt/amvnews/internal/config"
	"github.com/John-Robertt/amvnews/internal/infra/cache"
	"github.com/John-Robertt/amvnews/internal/infra/httpx"
	"github.com/John-Robertt/amvnews/internal/logger"
)

// sqliteFile 是 sqlite 后端在 cache.path 目录下的数据库文件名。
const sqliteFile = "amv.sqlite"

// app 持有一次命令调用的全部状态（配置、输出、文件系统）。
type app struct {
	v       *viper.Viper
	cfgFile string
	envFile string

	stdout io.Writer
	stderr io.Writer
	fs     afero.Fs

	settings config.Settings
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      viper.New(),
		stdout: stdout,
		stderr: stderr,
		fs:     afero.NewOsFs(),
	}
}

// execute 运行 CLI 并返回进程退出码：0 成功，1 执行失败，2 参数错误。
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	_ = logger.Close()
	if err == nil {
		return 0
	}

	var ue *usageError
	switch {
	case errors.As(err, &ue):
		fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
		fmt.Fprint(stderr, ue.cmd.UsageString())
		return 2
	case config.Code(err) != "":
		fmt.Fprintf(stderr, "配置错误：%v\n", err)
	default:
		fmt.Fprintf(stderr, "错误：%v\n", err)
	}
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "amvnews",
		Short: "amvnews.ru 命令行客户端：浏览、评分、收藏、下载 AMV",
		Long: `amvnews 访问 amvnews.ru：浏览精选与个人列表、查看作品详情、评分与收藏，
并把作品（视频、nfo、图片、字幕）同步到本地媒体库。

配置来源（高到低）：命令行参数、环境变量 AMVNEWS_*、.env、
$HOME/.amvnews.yaml 或 ./.amvnews.yaml。

示例：
  amvnews featured --page 2
  amvnews show 101 --format yaml
  amvnews rate 101 5
  amvnews download 101`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{cmd: cmd, err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "配置文件（默认 $HOME/.amvnews.yaml 或 ./.amvnews.yaml）")
	pf.StringVar(&a.envFile, "env-file", "", ".env 文件（默认 ./.env，不存在时忽略）")
	pf.Bool("debug", false, "输出 debug 日志")
	pf.BoolP("quiet", "q", false, "只输出 error 日志")
	pf.Bool("log-json", false, "日志使用 JSON 格式")
	pf.String("log-file", "", "额外写入滚动日志文件")
	pf.String("proxy", "", "HTTP 代理地址")
	pf.String("download-path", "", "下载目录")
	pf.String("cache-backend", "", "缓存后端：file|sqlite")

	_ = a.v.BindPFlag("log.debug", pf.Lookup("debug"))
	_ = a.v.BindPFlag("log.quiet", pf.Lookup("quiet"))
	_ = a.v.BindPFlag("log.json", pf.Lookup("log-json"))
	_ = a.v.BindPFlag("log.file", pf.Lookup("log-file"))
	_ = a.v.BindPFlag("proxy_url", pf.Lookup("proxy"))
	_ = a.v.BindPFlag("download_path", pf.Lookup("download-path"))
	_ = a.v.BindPFlag("cache.backend", pf.Lookup("cache-backend"))

	root.AddCommand(
		newListCmd(a, "featured", "精选列表", listFeatured),
		newListCmd(a, "evaluated", "我评过分的作品（需要登录）", listEvaluated),
		newListCmd(a, "favourites", "我的收藏（需要登录）", listFavourite),
		newShowCmd(a),
		newRateCmd(a),
		newFavCmd(a),
		newDownloadCmd(a),
		newPlayURLCmd(a),
		newSyncedCmd(a),
	)
	return root
}

func (a *app) init() error {
	s, err := config.Load(a.v, a.cfgFile, a.envFile)
	if err != nil {
		return err
	}
	a.settings = s
	logger.Init(logger.Options{
		Debug:  s.Log.Debug,
		Quiet:  s.Log.Quiet,
		JSON:   s.Log.JSON,
		File:   s.Log.File,
		Output: a.stderr,
	})
	if s.ConfigFile != "" {
		logger.Debug("已读取配置文件", "path", s.ConfigFile)
	}
	return nil
}

// session 是一次命令调用中的站点会话与缓存。
type session struct {
	client  *amvnews.Client
	catalog *amvnews.Catalog
	store   cache.Store
}

// Close 关闭缓存；命令已经完成，失败只记录日志。
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		logger.Error("关闭缓存失败", "err", err)
	}
}

// open 登录站点并打开缓存。站点 client 与下载 client 共享同一个 cookie jar。
func (a *app) open(ctx context.Context) (*session, error) {
	s := a.settings

	jar, err := httpx.NewJar()
	if err != nil {
		return nil, err
	}
	site, err := httpx.NewSiteClient(s.ProxyURL, jar)
	if err != nil {
		return nil, fmt.Errorf("初始化 HTTP client 失败：%w", err)
	}
	dl, err := httpx.NewDownloadClient(s.ProxyURL, jar)
	if err != nil {
		return nil, fmt.Errorf("初始化下载 client 失败：%w", err)
	}

	client, err := amvnews.NewClient(ctx, amvnews.Options{
		BaseURL:        s.BaseURL,
		Username:       s.Username,
		Password:       s.Password,
		HTTPClient:     site,
		DownloadClient: dl,
	})
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(s.Cache.Backend, cachePath(s.Cache))
	if err != nil {
		return nil, fmt.Errorf("打开缓存失败：%w", err)
	}

	return &session{
		client:  client,
		catalog: amvnews.NewCatalog(client, store, amvnews.CatalogOptions{TTL: s.Cache.TTL}),
		store:   store,
	}, nil
}

func cachePath(c config.CacheSettings) string {
	if c.Backend == cache.BackendSQLite {
		return filepath.Join(c.Path, sqliteFile)
	}
	return c.Path
}

// usageError 表示命令行参数错误（退出码 2）。
type usageError struct {
	cmd *cobra.Command
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(cmd *cobra.Command, format string, args ...any) error {
	return &usageError{cmd: cmd, err: fmt.Errorf(format, args...)}
}

// exactArgs 与 cobra.ExactArgs 相同，但把错误标记为参数错误。
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{cmd: cmd, err: err}
		}
		return nil
	}
}

func parseID(cmd *cobra.Command, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, usageErrorf(cmd, "非法 AMV ID：%q", s)
	}
	return id, nil
}
