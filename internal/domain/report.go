package domain

import "time"

// SyncReport 是一次下载（同步）的结果。
type SyncReport struct {
	ID      int    `json:"id"`
	Dest    string `json:"dest"`
	Skipped bool   `json:"skipped"` // 标记文件已存在：整次操作为空操作

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Files []FileResult `json:"files"`
}

type FileResult struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
}

// Total 返回本次写入的字节总数。
func (r SyncReport) Total() int64 {
	var n int64
	for _, f := range r.Files {
		n += f.Bytes
	}
	return n
}

// Finalize 把时间统一为 UTC（对外 JSON 输出稳定）。
func (r *SyncReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Files == nil {
		r.Files = []FileResult{}
	}
}
