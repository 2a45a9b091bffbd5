package scan

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const sentinelExt = ".sync"

// Synced 列出下载目录中已完成同步的 AMV id（存在 <id>.sync 标记文件）。
//
// 规则：
// - 只看 root 这一层（下载目录是扁平的），不递归
// - 只认文件名，不读内容；目录、非数字文件名一律忽略
// - root 不存在时返回空列表且不报错
// - 输出按 id 升序
func Synced(fs afero.Fs, root string) ([]int, error) {
	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		if os.IsNotExist(err) {
			return []int{}, nil
		}
		return nil, err
	}

	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, sentinelExt) {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSuffix(name, sentinelExt))
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}

	// 强制稳定输出，避免不同文件系统的遍历顺序差异。
	sort.Ints(ids)
	return ids, nil
}
