package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haierkeys/draft-sync-service/internal/dto"
	"github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	"github.com/haierkeys/draft-sync-service/pkg/util"

	"go.uber.org/zap"
)

const sessionTestSecret = "open sesame"

func newSessionTestService(t *testing.T, mutate func(*ServiceConfig)) SessionService {
	t.Helper()

	hash, err := util.GeneratePasswordHash(sessionTestSecret)
	if err != nil {
		t.Fatalf("GeneratePasswordHash failed: %v", err)
	}

	cfg := &ServiceConfig{
		Session: SessionServiceConfig{
			SecretHash:  hash,
			TokenExpiry: time.Hour,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "test-signing-key", Expiry: time.Hour})
	return NewSessionService(tm, zap.NewNop(), cfg)
}

func TestSessionService_CreateAndParse(t *testing.T) {
	svc := newSessionTestService(t, nil)

	res, err := svc.Create(context.Background(), &dto.SessionCreateRequest{
		Secret:    sessionTestSecret,
		Client:    "obsidian",
		Workspace: "my-vault",
		Version:   "1.2.0",
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if res.Token == "" {
		t.Fatal("expected a token")
	}
	if res.UID != WorkspaceUID("my-vault") {
		t.Errorf("expected uid %d, got %d", WorkspaceUID("my-vault"), res.UID)
	}
	if time.Time(res.ExpiredAt).IsZero() {
		t.Error("expected expiredAt to be set")
	}

	entity, err := svc.ParseToken(res.Token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if entity.UID != res.UID {
		t.Errorf("expected uid %d in the token, got %d", res.UID, entity.UID)
	}
	if entity.Client != "obsidian" {
		t.Errorf("expected client obsidian, got %s", entity.Client)
	}
	if entity.IP != "10.0.0.1" {
		t.Errorf("expected ip 10.0.0.1, got %s", entity.IP)
	}
}

func TestSessionService_CreateWrongSecret(t *testing.T) {
	svc := newSessionTestService(t, nil)

	_, err := svc.Create(context.Background(), &dto.SessionCreateRequest{
		Secret:    "not the secret",
		Client:    "obsidian",
		Workspace: "my-vault",
	}, "10.0.0.1")
	if !errors.Is(err, code.ErrorPasswordNotValid) {
		t.Errorf("expected ErrorPasswordNotValid, got %v", err)
	}
}

func TestSessionService_CreateNoSecretConfigured(t *testing.T) {
	svc := newSessionTestService(t, func(cfg *ServiceConfig) {
		cfg.Session.SecretHash = ""
	})

	// 未配置接入密钥时一律拒绝，避免空密钥实例被任意接入
	_, err := svc.Create(context.Background(), &dto.SessionCreateRequest{
		Secret:    "",
		Client:    "obsidian",
		Workspace: "my-vault",
	}, "10.0.0.1")
	if !errors.Is(err, code.ErrorPasswordNotValid) {
		t.Errorf("expected ErrorPasswordNotValid, got %v", err)
	}
}

func TestSessionService_AllowedClients(t *testing.T) {
	svc := newSessionTestService(t, func(cfg *ServiceConfig) {
		cfg.Session.AllowedClients = []string{"obsidian", "cli"}
	})

	_, err := svc.Create(context.Background(), &dto.SessionCreateRequest{
		Secret:    sessionTestSecret,
		Client:    "web",
		Workspace: "my-vault",
	}, "10.0.0.1")
	if !errors.Is(err, code.ErrorClientNotAllowed) {
		t.Errorf("expected ErrorClientNotAllowed, got %v", err)
	}

	_, err = svc.Create(context.Background(), &dto.SessionCreateRequest{
		Secret:    sessionTestSecret,
		Client:    "cli",
		Workspace: "my-vault",
	}, "10.0.0.1")
	if err != nil {
		t.Errorf("expected listed client to pass, got %v", err)
	}
}

func TestWorkspaceUID(t *testing.T) {
	// 同一工作区在任何进程里都得到同一 uid
	a := WorkspaceUID("my-vault")
	b := WorkspaceUID("my-vault")
	if a != b {
		t.Errorf("expected a stable uid, got %d and %d", a, b)
	}
	if a <= 0 {
		t.Errorf("expected a positive uid, got %d", a)
	}

	if WorkspaceUID("my-vault") == WorkspaceUID("other-vault") {
		t.Error("different workspaces should not share a namespace")
	}

	if WorkspaceUID("") <= 0 {
		t.Error("even the empty workspace must map to a positive uid")
	}
}
