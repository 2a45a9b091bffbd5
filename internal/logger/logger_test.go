package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLogger() {
	Init(Options{})
}

func TestInit_DefaultLevelInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("缓存命中", "id", 1)
	assert.Contains(t, buf.String(), "缓存命中")

	buf.Reset()
	Debug("调试")
	assert.Empty(t, buf.String())
}

func TestInit_DebugAndQuiet(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Output: buf})
	DebugContext(context.Background(), "debug on")
	assert.Contains(t, buf.String(), "debug on")

	buf.Reset()
	Init(Options{Quiet: true, Output: buf})
	defer resetLogger()
	Info("info")
	Warn("warn")
	assert.Empty(t, buf.String())
	Error("boom")
	assert.Contains(t, buf.String(), "boom")
}

func TestInit_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	With("component", "catalog").Info("fetch", "id", 42)

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "fetch", m["msg"])
	assert.Equal(t, "catalog", m["component"])
	assert.EqualValues(t, 42, m["id"])
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amvnews.log")
	buf := &bytes.Buffer{}
	Init(Options{Output: buf, File: path})

	InfoContext(context.Background(), "写入文件")
	require.NoError(t, Close())
	defer resetLogger()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), "写入文件"))
	assert.Contains(t, buf.String(), "写入文件")
}
