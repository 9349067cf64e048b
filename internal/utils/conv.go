package utils

import (
	"strconv"
	"strings"
)

// ParseID 解析路径或表单中的正整数 ID
func ParseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ParseOptionalID 空字符串返回 nil；非法值返回 ok=false
func ParseOptionalID(s string) (*uint, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	id, ok := ParseID(s)
	if !ok {
		return nil, false
	}
	return &id, true
}
