package domain

// Artifact 描述一个待下载的产物。
//
// 文件名 = Base + 扩展名；扩展名在下载时按 Content-Disposition / URL / 内容嗅探决定，
// 都无法确定时使用 DefaultExt。
type Artifact struct {
	Kind       string // 见 Kind* 常量
	URL        string
	Base       string // 例如 "123" 或 "123-poster"
	DefaultExt string // 含前导 '.'
}

const (
	KindMedia    = "media"
	KindNFO      = "nfo"
	KindPoster   = "poster"
	KindFanart   = "fanart"
	KindSubtitle = "subtitle"
	KindSentinel = "sentinel"
)

// DownloadPlan 是某个 AMV 的确定性下载计划（只描述产物，不做任何 I/O）。
//
// 执行顺序固定：Media -> NFO -> Images -> Subtitle -> Sentinel（标记文件最后写）。
type DownloadPlan struct {
	ID       int
	Media    Artifact
	NFOName  string
	Images   []Artifact // 最多两张：poster、fanart
	Subtitle *Artifact  // nil 表示不下载字幕
	Sentinel string
}

// SyncState 是下载目录中与某个 AMV 相关的现状（只看文件名，不读内容）。
type SyncState struct {
	Dir         string
	HasSentinel bool
}
