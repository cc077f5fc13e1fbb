package util

import (
	"crypto/rand"
	mrand "math/rand"
)

// GetRandomString returns a random alphanumeric string of the given length.
// The token signing key and the bootstrap access secret are generated here,
// so bytes come from crypto/rand; math/rand only backs the fallback.
// GetRandomString 生成指定长度的随机字母数字串
// 签名密钥与首启接入密钥都出自这里，随机源取 crypto/rand，
// 读取失败时退回 math/rand
func GetRandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		for i := range b {
			b[i] = charset[mrand.Intn(len(charset))]
		}
		return string(b)
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
