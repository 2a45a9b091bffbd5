package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/John-Robertt/amvnews/internal/domain"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingCredentials 表示操作需要登录，但没有配置用户名。
	ErrCodeMissingCredentials = "config_missing_credentials"
)

const (
	EnvPrefix  = "AMVNEWS"
	configName = ".amvnews"

	DefaultCacheBackend = "file"
	DefaultCacheTTL     = 72 * time.Hour
	DefaultSubtitleLang = "russian"
)

// Settings 是合并后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type Settings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	DownloadPath       string `mapstructure:"download_path"`
	DownloadEvaluated  bool   `mapstructure:"download_evaluated"`
	DownloadThreshold  int    `mapstructure:"download_threshold" validate:"gte=0,lte=4"`
	DownloadFavourites bool   `mapstructure:"download_favourites"`

	// SubtitlesLang 也接受数字取值："0"=俄语，"1"=英语。
	SubtitlesLang string `mapstructure:"subtitles_lang" validate:"oneof=russian english ru en 0 1"`

	ProxyURL string `mapstructure:"proxy_url" validate:"omitempty,url"`
	// BaseURL 是站点入口（镜像站或测试）；为空时使用内置地址。
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`

	Cache CacheSettings `mapstructure:"cache"`
	Log   LogSettings   `mapstructure:"log"`

	// ConfigFile 是实际读取的配置文件（未读取任何文件时为空）。
	ConfigFile string `mapstructure:"-"`
}

type CacheSettings struct {
	Backend string        `mapstructure:"backend" validate:"oneof=file sqlite"`
	Path    string        `mapstructure:"path" validate:"required"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type LogSettings struct {
	Debug bool   `mapstructure:"debug"`
	Quiet bool   `mapstructure:"quiet"` // 只输出 error，优先于 debug
	JSON  bool   `mapstructure:"json"`
	File  string `mapstructure:"file"`
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeMissingCredentials:
		return fmt.Sprintf("%s：该操作需要登录，请配置 username/password（或环境变量 %s_USERNAME/%s_PASSWORD）", e.Code, EnvPrefix, EnvPrefix)
	case ErrCodeInvalid:
		if e.Path != "" && e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Load 读取配置并校验。
//
// 来源优先级（高到低）：
// 1) 已通过 v.BindPFlag 绑定的 CLI 参数
// 2) 环境变量 AMVNEWS_*（键中的 '.' 换成 '_'，例如 AMVNEWS_CACHE_BACKEND）
// 3) .env 文件（envFile 为空时尝试 ./.env；文件不存在不报错；不覆盖已有环境变量）
// 4) 配置文件：cfgFile 指定时必须存在；否则依次查找 $HOME/.amvnews.yaml、./.amvnews.yaml
// 5) 内置默认值
func Load(v *viper.Viper, cfgFile, envFile string) (Settings, error) {
	if err := loadDotEnv(envFile); err != nil {
		return Settings{}, &Error{Code: ErrCodeInvalid, Path: envFile, Err: err}
	}

	setDefaults(v)

	if cfgFile = strings.TrimSpace(cfgFile); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, &Error{Code: ErrCodeInvalid, Path: cfgFile, Err: err}
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Settings{}, &Error{Code: ErrCodeInvalid, Path: v.ConfigFileUsed(), Err: err}
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, &Error{Code: ErrCodeInvalid, Path: v.ConfigFileUsed(), Err: err}
	}
	s.ConfigFile = v.ConfigFileUsed()
	normalize(&s)

	if err := validator.New().Struct(s); err != nil {
		return Settings{}, &Error{Code: ErrCodeInvalid, Path: s.ConfigFile, Err: humanize(err)}
	}
	return s, nil
}

// setDefaults 为每个键登记默认值：AutomaticEnv 只对 viper 已知的键生效。
func setDefaults(v *viper.Viper) {
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("download_path", "")
	v.SetDefault("download_evaluated", false)
	v.SetDefault("download_threshold", 0)
	v.SetDefault("download_favourites", false)
	v.SetDefault("subtitles_lang", DefaultSubtitleLang)
	v.SetDefault("proxy_url", "")
	v.SetDefault("base_url", "")
	v.SetDefault("cache.backend", DefaultCacheBackend)
	v.SetDefault("cache.path", defaultCachePath())
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("log.debug", false)
	v.SetDefault("log.quiet", false)
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
}

func loadDotEnv(envFile string) error {
	envFile = strings.TrimSpace(envFile)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func defaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "amvnews")
	}
	return filepath.Join(".", ".amvnews-cache")
}

func normalize(s *Settings) {
	s.Username = strings.TrimSpace(s.Username)
	s.DownloadPath = expandHome(strings.TrimSpace(s.DownloadPath))
	s.SubtitlesLang = strings.ToLower(strings.TrimSpace(s.SubtitlesLang))
	s.ProxyURL = strings.TrimSpace(s.ProxyURL)
	s.BaseURL = strings.TrimSpace(s.BaseURL)
	s.Cache.Backend = strings.ToLower(strings.TrimSpace(s.Cache.Backend))
	s.Cache.Path = expandHome(strings.TrimSpace(s.Cache.Path))
	s.Log.File = expandHome(strings.TrimSpace(s.Log.File))
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// humanize 把 validator 的错误转成“键名：规则”形式（键名与配置文件一致）。
func humanize(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s 不满足 %s（当前值 %v）", keyName(fe.StructNamespace()), ruleText(fe), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "；"))
}

var keyNames = map[string]string{
	"Settings.DownloadThreshold": "download_threshold",
	"Settings.SubtitlesLang":     "subtitles_lang",
	"Settings.ProxyURL":          "proxy_url",
	"Settings.BaseURL":           "base_url",
	"Settings.Cache.Backend":     "cache.backend",
	"Settings.Cache.Path":        "cache.path",
	"Settings.Cache.TTL":         "cache.ttl",
}

func keyName(ns string) string {
	if k, ok := keyNames[ns]; ok {
		return k
	}
	return ns
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// RequireCredentials 在需要登录的操作前调用：用户名与密码都要有。
func (s Settings) RequireCredentials() error {
	if s.Username == "" || s.Password == "" {
		return &Error{Code: ErrCodeMissingCredentials}
	}
	return nil
}

// SubtitleLanguage 返回字幕语言偏好。
func (s Settings) SubtitleLanguage() domain.Language {
	return domain.ParseLanguage(s.SubtitlesLang)
}

// ShouldDownloadAfterRating：开启“下载评过分的”且 mark 不低于阈值+1。
func (s Settings) ShouldDownloadAfterRating(mark int) bool {
	return s.DownloadEvaluated && s.DownloadThreshold+1 <= mark
}

// ShouldDownloadAfterFavourite：开启“下载收藏的”。
func (s Settings) ShouldDownloadAfterFavourite() bool {
	return s.DownloadFavourites
}
