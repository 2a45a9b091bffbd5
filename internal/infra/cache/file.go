package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/John-Robertt/amvnews/internal/domain"
	"github.com/John-Robertt/amvnews/internal/infra/fsx"
	"github.com/John-Robertt/amvnews/internal/logger"
	"github.com/spf13/afero"
)

// FileStore 把每条记录存为 <Root>/amv/<id>.json（原子替换写入）。
type FileStore struct {
	Fs   afero.Fs
	Root string
}

func NewFileStore(fs afero.Fs, root string) *FileStore {
	return &FileStore{Fs: fs, Root: root}
}

func (s *FileStore) dir() string {
	return filepath.Join(s.Root, "amv")
}

// Path 返回某个 ID 的记录文件路径。
func (s *FileStore) Path(id int) string {
	return filepath.Join(s.dir(), strconv.Itoa(id)+".json")
}

func (s *FileStore) Get(ctx context.Context, id int) (domain.AMV, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.AMV{}, false, err
	}
	b, err := afero.ReadFile(s.Fs, s.Path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.AMV{}, false, nil
		}
		return domain.AMV{}, false, err
	}
	var amv domain.AMV
	if err := json.Unmarshal(b, &amv); err != nil || amv.ID != id {
		// 损坏或错位的记录：当作未命中，下次 Put 会覆盖。
		logger.Warn("缓存记录损坏，按未命中处理", "id", id, "path", s.Path(id), "err", err)
		return domain.AMV{}, false, nil
	}
	return amv, true, nil
}

func (s *FileStore) Put(ctx context.Context, amv domain.AMV) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amv.ID <= 0 {
		return fmt.Errorf("非法 AMV ID：%d", amv.ID)
	}
	b, err := json.MarshalIndent(amv, "", "  ")
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicReplace(s.Fs, s.dir(), strconv.Itoa(amv.ID)+".json", b)
}

func (s *FileStore) Close() error { return nil }
