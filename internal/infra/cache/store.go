package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/amvnews/internal/domain"
	"github.com/spf13/afero"
)

// Store 是 AMV 元数据的持久化缓存（以站点 ID 为键）。
//
// 约束：
// - Get 未命中返回 (zero, false, nil)；损坏的记录也按未命中处理
// - 有效性（版本/过期）由调用方判断，Store 只负责存取
// - Put 覆盖同 ID 的旧记录
type Store interface {
	Get(ctx context.Context, id int) (domain.AMV, bool, error)
	Put(ctx context.Context, amv domain.AMV) error
	Close() error
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open 按 backend 打开缓存。
//
// path 语义：
// - file：缓存根目录（记录写在 <path>/amv/<id>.json）
// - sqlite：数据库文件路径
func Open(backend, path string) (Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("缓存路径不能为空")
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStore(afero.NewOsFs(), filepath.Clean(path)), nil
	case BackendSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("未知缓存后端：%q", backend)
	}
}
