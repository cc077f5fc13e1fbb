package app

import (
	"fmt"
	"time"

	"github.com/haierkeys/draft-sync-service/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// 默认 Token 签发者
const DefaultTokenIssuer = "draft-sync-service"

// 会话凭证在 gin Context 里的存放键
const sessionTokenKey = "session_token"

// TokenConfig 定义 Token 管理器的配置
type TokenConfig struct {
	SecretKey string        `yaml:"secret-key"` // JWT 签名密钥
	Expiry    time.Duration `yaml:"expiry"`     // Token 过期时间，默认 7 天
	Issuer    string        `yaml:"issuer"`     // Token 签发者
}

// TokenManager 定义会话 Token 管理接口
type TokenManager interface {
	Generate(uid int64, client, ip string) (string, error)
	Parse(token string) (*SessionEntity, error)
}

// tokenManager 实现 TokenManager 接口
type tokenManager struct {
	config TokenConfig
}

// NewTokenManager 创建一个新的 TokenManager 实例
func NewTokenManager(cfg TokenConfig) TokenManager {
	if cfg.Expiry == 0 {
		cfg.Expiry = 7 * 24 * time.Hour // 默认 7 天
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	return &tokenManager{config: cfg}
}

// SessionEntity 会话凭证里携带的编辑端身份
type SessionEntity struct {
	UID    int64  `json:"uid"`
	Client string `json:"client"`
	IP     string `json:"ip"`
	jwt.RegisteredClaims
}

// signingKey 把配置密钥和机器指纹拼成签名密钥，凭证换机即失效
func signingKey(secret string) []byte {
	return []byte(secret + "_" + util.GetMachineID())
}

// Generate 生成一个新的会话 Token
func (t *tokenManager) Generate(uid int64, client, ip string) (string, error) {
	expirationTime := time.Now().Add(t.config.Expiry)
	claims := &SessionEntity{
		UID:    uid,
		Client: client,
		IP:     ip,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    t.config.Issuer,
			Subject:   "session-token",
			ID:        fmt.Sprintf("%d", uid),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey(t.config.SecretKey))
}

// Parse 解析会话 Token 并返回编辑端身份
func (t *tokenManager) Parse(token string) (*SessionEntity, error) {
	return ParseTokenWithKey(token, t.config.SecretKey)
}

// ParseTokenWithKey 使用指定密钥解析 Token
func ParseTokenWithKey(tokenString string, secretKey string) (*SessionEntity, error) {
	claims := &SessionEntity{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// GetUID extracts the client uid from the request context.
func GetUID(ctx *gin.Context) (out int64) {
	user, exist := ctx.Get(sessionTokenKey)
	if exist {
		if entity, ok := user.(*SessionEntity); ok {
			out = entity.UID
		}
	}
	return
}

// SetTokenToContextWithKey 使用指定密钥解析 Token 并写入 Context
func SetTokenToContextWithKey(ctx *gin.Context, tokenString string, secretKey string) error {
	user, err := ParseTokenWithKey(tokenString, secretKey)
	if err != nil {
		return err
	}
	ctx.Set(sessionTokenKey, user)
	return nil
}
