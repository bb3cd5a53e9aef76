// Package commentpath 评论物化路径：根评论为 "<id>"，回复为 "<父路径>/<id>"
package commentpath

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

const Separator = "/"

// Root 根评论路径
func Root(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// Child 在父路径后追加自身 id
func Child(parentPath string, id uint64) string {
	return parentPath + Separator + strconv.FormatUint(id, 10)
}

// Segments 按数值解析路径段，遇到非法段时 ok 为 false
func Segments(path string) (segs []uint64, ok bool) {
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, Separator)
	segs = make([]uint64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, false
		}
		segs = append(segs, v)
	}
	return segs, true
}

// Depth 路径对应的层级，根为 0
func Depth(path string) int {
	return strings.Count(path, Separator)
}

// IsAncestor a 是否为 b 的祖先（不含自身）
func IsAncestor(a, b string) bool {
	return strings.HasPrefix(b, a+Separator)
}

// Compare 按数值段逐个比较，前缀较短的排前面，即先序遍历顺序
// 任一路径无法解析时退化为字符串比较
func Compare(a, b string) int {
	sa, okA := Segments(a)
	sb, okB := Segments(b)
	if !okA || !okB {
		return strings.Compare(a, b)
	}
	return slices.Compare(sa, sb)
}

// SortByPath 稳定排序，path 相同的元素保持原有顺序
func SortByPath[T any](items []T, path func(T) string) {
	keys := make(map[string][]uint64, len(items))
	for _, it := range items {
		p := path(it)
		if _, seen := keys[p]; seen {
			continue
		}
		if segs, ok := Segments(p); ok {
			keys[p] = segs
		} else {
			keys[p] = nil
		}
	}
	slices.SortStableFunc(items, func(x, y T) int {
		px, py := path(x), path(y)
		kx, ky := keys[px], keys[py]
		if kx == nil || ky == nil {
			return cmp.Compare(px, py)
		}
		return slices.Compare(kx, ky)
	})
}
