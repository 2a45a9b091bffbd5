package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

// 通过可替换的函数指针，让测试能稳定模拟 EXDEV 等错误。
var renameFunc = func(fs afero.Fs, oldpath, newpath string) error {
	return fs.Rename(oldpath, newpath)
}

// PathTypeConflictError 表示目标路径类型冲突（例如期望目录但实际是文件）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示跨盘（EXDEV）导致的 rename 失败。
// 临时文件与目标总在同一目录，出现该错误通常意味着挂载点异常。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨盘移动失败（EXDEV）：%q -> %q：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 fs.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(fs afero.Fs, src, dst string) error {
	if err := renameFunc(fs, src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// EnsureDir 确保 dir 存在且是目录。
func EnsureDir(fs afero.Fs, dir string) error {
	fi, err := fs.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return fs.MkdirAll(dir, 0o755)
}

// Exists 判断 dir/name 是否存在（任何类型）。
func Exists(fs afero.Fs, dir, name string) (bool, error) {
	_, err := fs.Stat(filepath.Join(dir, name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// WriteFileAtomicReplace 在 dir 下原子写入 name（同目录临时文件 + rename），目标已存在则覆盖。
func WriteFileAtomicReplace(fs afero.Fs, dir, name string, data []byte) error {
	_, err := writeAtomic(fs, dir, name, 0o644, func(w io.Writer) (int64, error) {
		return int64(len(data)), writeAll(w, data)
	})
	return err
}

// WriteStreamAtomic 把 r 分块写入 dir/name（buf 决定块大小），完成后原子 rename 到目标。
//
// 中途失败：临时文件被删除，目标文件保持原状（不存在就仍然不存在）。
func WriteStreamAtomic(fs afero.Fs, dir, name string, r io.Reader, buf []byte) (int64, error) {
	return writeAtomic(fs, dir, name, 0o644, func(w io.Writer) (int64, error) {
		// 隐藏 ReaderFrom/WriterTo，保证按 buf 分块拷贝。
		return io.CopyBuffer(struct{ io.Writer }{w}, struct{ io.Reader }{r}, buf)
	})
}

func writeAtomic(fs afero.Fs, dir, name string, perm os.FileMode, fill func(io.Writer) (int64, error)) (int64, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	dst := filepath.Join(dir, name)

	// 前缀带 '.'，避免媒体库扫描到半成品。
	tmp, err := afero.TempFile(fs, dir, "."+name+".tmp-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
	}()

	n, err := fill(tmp)
	if err != nil {
		return n, err
	}
	if err := tmp.Sync(); err != nil {
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	if err := fs.Chmod(tmpName, perm); err != nil {
		return n, err
	}

	if err := Rename(fs, tmpName, dst); err != nil {
		return n, err
	}

	_ = syncDirBestEffort(fs, dir)
	return n, nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(fs afero.Fs, dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := fs.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
