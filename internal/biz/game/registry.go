package game

import (
	"os"
	"path/filepath"
	"slices"

	"mather/internal/biz/game/mathcfg"
)

// Discover 列出 root 下包含 game.yaml 的游戏目录（按名称排序）
func Discover(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if _, err := os.Stat(filepath.Join(dir, mathcfg.GameFile)); err != nil {
			continue
		}
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)
	return dirs, nil
}
