//go:build unix

package fsx

import (
	"errors"
	"syscall"
)

// isEXDEV 判断 rename 是否因跨设备而失败（下载目录与临时目录不在同一文件系统）。
// *os.LinkError 实现了 Unwrap，errors.Is 会穿透它。
func isEXDEV(err error) bool {
	return err != nil && errors.Is(err, syscall.EXDEV)
}
