package download

import "time"

// Observer 把下载进度从执行流程中解耦出来。
//
// 约束：download 包只发事件，不做任何输出。
type Observer interface {
	// OnStart 在确认需要下载（标记文件不存在）后调用。
	OnStart(id int, dest string)
	// OnArtifactDone 在某个产物写入完成后调用。
	OnArtifactDone(id int, kind, name string, bytes int64, dur time.Duration)
	// OnSkip 在整次下载被跳过时调用（例如标记文件已存在）。
	OnSkip(id int, reason string)
}

type nopObserver struct{}

func (nopObserver) OnStart(int, string)                                      {}
func (nopObserver) OnArtifactDone(int, string, string, int64, time.Duration) {}
func (nopObserver) OnSkip(int, string)                                       {}
