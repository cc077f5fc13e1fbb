package app

import (
	"testing"
	"time"
)

func TestTokenManager_GenerateAndParse(t *testing.T) {
	cfg := TokenConfig{
		SecretKey: "session-secret",
		Expiry:    24 * time.Hour,
		Issuer:    "test-issuer",
	}
	tm := NewTokenManager(cfg)

	uid := int64(1001)
	client := "desktop-editor"
	ip := "127.0.0.1"

	// 1. 测试生成和解析
	token, err := tm.Generate(uid, client, ip)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	parsed, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// 验证字段
	if parsed.UID != uid {
		t.Errorf("Expected UID %d, got %d", uid, parsed.UID)
	}
	if parsed.Client != client {
		t.Errorf("Expected Client %s, got %s", client, parsed.Client)
	}
	if parsed.IP != ip {
		t.Errorf("Expected IP %s, got %s", ip, parsed.IP)
	}
	if parsed.Issuer != cfg.Issuer {
		t.Errorf("Expected Issuer %s, got %s", cfg.Issuer, parsed.Issuer)
	}

	// 2. 测试过期
	shortExpiryCfg := cfg
	shortExpiryCfg.Expiry = -1 * time.Second
	tmExpired := NewTokenManager(shortExpiryCfg)

	expiredToken, err := tmExpired.Generate(uid, client, ip)
	if err != nil {
		t.Fatalf("Generate (expired) failed: %v", err)
	}

	_, err = tm.Parse(expiredToken)
	if err == nil {
		t.Error("Expected error for expired token, but got nil")
	}

	// 3. 测试错误的密钥
	wrongKeyCfg := cfg
	wrongKeyCfg.SecretKey = "wrong-session-secret"
	tmWrongKey := NewTokenManager(wrongKeyCfg)

	wrongToken, _ := tmWrongKey.Generate(uid, client, ip)
	_, err = tm.Parse(wrongToken)
	if err == nil {
		t.Error("Expected error for token generated with different secret key, but got nil")
	}

	// 4. 测试篡改后的 Token
	tamperedToken := token + "xyz"
	_, err = tm.Parse(tamperedToken)
	if err == nil {
		t.Error("Expected error for tampered session token, but got nil")
	}
}

func TestTokenManager_Defaults(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "s"})

	token, err := tm.Generate(1, "c", "127.0.0.1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	parsed, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.Issuer != DefaultTokenIssuer {
		t.Errorf("Expected default issuer %s, got %s", DefaultTokenIssuer, parsed.Issuer)
	}
}

func TestParseTokenWithKey(t *testing.T) {
	cfg := TokenConfig{SecretKey: "shared-secret", Expiry: time.Hour}
	tm := NewTokenManager(cfg)

	token, err := tm.Generate(7, "web", "10.0.0.1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	parsed, err := ParseTokenWithKey(token, "shared-secret")
	if err != nil {
		t.Fatalf("ParseTokenWithKey failed: %v", err)
	}
	if parsed.UID != 7 {
		t.Errorf("Expected UID 7, got %d", parsed.UID)
	}

	if _, err := ParseTokenWithKey(token, "other-secret"); err == nil {
		t.Error("Expected error for mismatched secret key, but got nil")
	}
}
