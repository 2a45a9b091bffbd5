package fsx

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestWriteFileAtomicReplace_SuccessAndNoTempLeft(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/dest"

	if err := WriteFileAtomicReplace(fs, dir, "a.txt", []byte("hello")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 覆盖写。
	if err := WriteFileAtomicReplace(fs, dir, "a.txt", []byte("world")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, err := afero.ReadFile(fs, filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatalf("读取文件失败：%v", err)
	}
	if string(b) != "world" {
		t.Fatalf("内容不一致：%q", string(b))
	}
	assertNoTemp(t, fs, dir, "a.txt")
}

func TestWriteFileAtomicReplace_RenameFail_CleanupTemp(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/dest"

	old := renameFunc
	renameFunc = func(afero.Fs, string, string) error {
		return os.ErrPermission
	}
	defer func() { renameFunc = old }()

	err := WriteFileAtomicReplace(fs, dir, "a.txt", []byte("hello"))
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("期望 ErrPermission，实际：%v", err)
	}
	if ok, _ := Exists(fs, dir, "a.txt"); ok {
		t.Fatalf("不应写出最终文件")
	}
	assertNoTemp(t, fs, dir, "a.txt")
}

type failingReader struct{ n int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n <= 0 {
		return 0, errors.New("连接中断")
	}
	k := len(p)
	if k > r.n {
		k = r.n
	}
	for i := 0; i < k; i++ {
		p[i] = 'x'
	}
	r.n -= k
	return k, nil
}

func TestWriteStreamAtomic_ChunkedCopy(t *testing.T) {
	fs := afero.NewMemMapFs()
	payload := bytes.Repeat([]byte("0123456789"), 1000)

	n, err := WriteStreamAtomic(fs, "/dest", "1.mp4", bytes.NewReader(payload), make([]byte, 64))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if n != int64(len(payload)) {
		t.Fatalf("写入字节数不一致：%d", n)
	}
	b, _ := afero.ReadFile(fs, "/dest/1.mp4")
	if !bytes.Equal(b, payload) {
		t.Fatalf("内容不一致")
	}
}

func TestWriteStreamAtomic_ReaderFail_NoTarget(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := WriteStreamAtomic(fs, "/dest", "1.mp4", &failingReader{n: 100}, make([]byte, 16))
	if err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if ok, _ := Exists(fs, "/dest", "1.mp4"); ok {
		t.Fatalf("读取失败时不应出现目标文件")
	}
	assertNoTemp(t, fs, "/dest", "1.mp4")
}

func TestEnsureDir_TargetConflictFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/dest", []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}

	err := EnsureDir(fs, "/dest")
	if !IsPathTypeConflict(err) {
		t.Fatalf("期望 PathTypeConflictError，实际：%T %v", err, err)
	}
}

func assertNoTemp(t *testing.T, fs afero.Fs, dir, name string) {
	t.Helper()
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		t.Fatalf("ReadDir 失败：%v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "."+name+".tmp-") {
			t.Fatalf("临时文件未清理：%q", e.Name())
		}
	}
}
