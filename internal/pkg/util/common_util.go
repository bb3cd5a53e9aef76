package util

import (
	"strconv"
)

// ParseUint64Param 解析路径参数，非法或为 0 时 ok 为 false
func ParseUint64Param(s string) (uint64, bool) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return v, true
}
