package util

import (
	"golang.org/x/crypto/bcrypt"
)

// GeneratePasswordHash hashes the instance access secret with bcrypt.
// The hash goes into the config file, the plaintext is shown once at
// first boot and never stored.
// GeneratePasswordHash 用 bcrypt 哈希实例接入密钥
// 哈希写入配置文件，明文仅在首次启动时展示一次，不会落盘
func GeneratePasswordHash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash verifies a presented secret against the stored hash.
// CheckPasswordHash 校验提交的密钥与存储的哈希是否匹配
func CheckPasswordHash(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
