// Package fileurl 文件路径相关的小工具
package fileurl

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// IsExist reports whether the given path exists.
// IsExist 判断所给路径是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

// CreatePath creates the parent directory of dst.
// CreatePath 创建 dst 的父目录
func CreatePath(dst string, perm os.FileMode) error {
	return os.MkdirAll(filepath.Dir(dst), perm)
}

// GetExePath returns the directory holding the running executable.
// Relative config and storage paths resolve against it.
// GetExePath 返回当前可执行文件所在目录，相对的配置与存储路径基于它解析
func GetExePath() string {
	file, _ := exec.LookPath(os.Args[0])
	path, _ := filepath.Abs(file)
	index := strings.LastIndex(path, string(os.PathSeparator))
	return path[:index]
}

// PathSuffixCheckAdd appends suffix unless path already ends with it.
// Object store prefixes use it to guarantee one trailing slash.
// PathSuffixCheckAdd 路径缺少后缀时补上，对象存储前缀靠它保证以斜杠结尾
func PathSuffixCheckAdd(path string, suffix string) string {
	if !strings.HasSuffix(path, suffix) {
		path = path + suffix
	}
	return path
}
