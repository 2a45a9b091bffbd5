package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/John-Robertt/amvnews/internal/app/download"
)

var _ download.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的下载进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：download 层只发事件，CLI 决定如何展示
// - keepalive：大文件长时间没有产物完成时也会定期输出一行
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	id    int
	done  int
	bytes int64

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(id int, dest string) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = now
	p.id = id
	fmt.Fprintf(p.w, "[%s] 下载 #%d -> %s\n", now.Format("15:04:05"), id, dest)
	p.lastPrinted = now

	if !p.tickerStarted {
		p.startTickerLocked()
	}
}

func (p *progressUI) OnArtifactDone(id int, kind, name string, bytes int64, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.bytes += bytes
	fmt.Fprintf(p.w, "  [%d] %-8s %s %s (%s)\n",
		p.done, kind, truncate(name, 80), humanize.IBytes(uint64(bytes)), formatShortDuration(dur),
	)
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnSkip(id int, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "[%s] #%d SKIP (%s)\n", time.Now().Format("15:04:05"), id, reason)
	p.lastPrinted = time.Now()
}

// Finish 停止 keepalive；可重复调用。
func (p *progressUI) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stop := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "  下载中: #%d files=%d size=%s elapsed=%s\n",
						p.id, p.done, humanize.IBytes(uint64(p.bytes)), formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
