package cache

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/John-Robertt/amvnews/internal/domain"
	"github.com/John-Robertt/amvnews/internal/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore 把记录存在单表 amv_records 中（data 列为 AMV 的 JSON）。
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite 打开（必要时创建）数据库并执行迁移。
// path 为 ":memory:" 时使用内存库（测试用）。
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("打开缓存数据库失败：%w", err)
	}
	// 内存库按连接隔离：固定单连接，保证迁移与读写看到同一个库。
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("连接缓存数据库失败：%w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("缓存数据库迁移失败：%w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

func (s *SQLiteStore) Get(ctx context.Context, id int) (domain.AMV, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM amv_records WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AMV{}, false, nil
	}
	if err != nil {
		return domain.AMV{}, false, err
	}
	var amv domain.AMV
	if err := json.Unmarshal([]byte(data), &amv); err != nil || amv.ID != id {
		logger.Warn("缓存记录损坏，按未命中处理", "id", id, "backend", "sqlite", "err", err)
		return domain.AMV{}, false, nil
	}
	return amv, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, amv domain.AMV) error {
	if amv.ID <= 0 {
		return fmt.Errorf("非法 AMV ID：%d", amv.ID)
	}
	b, err := json.Marshal(amv)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO amv_records (id, format, fetched_at, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			format = excluded.format,
			fetched_at = excluded.fetched_at,
			data = excluded.data`,
		amv.ID, amv.Format, unixOrZero(amv.FetchedAt), string(b))
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
