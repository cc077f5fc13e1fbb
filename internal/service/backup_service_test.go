package service

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/draft-sync-service/pkg/code"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore/memory"

	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"
)

func backupTestConfig(dir string) *ServiceConfig {
	return &ServiceConfig{
		Backup: BackupServiceConfig{
			Enabled: true,
			Dir:     dir,
		},
	}
}

func TestNewBackupService(t *testing.T) {
	store, _ := memory.NewClient()

	s := NewBackupService(store, zap.NewNop(), backupTestConfig(t.TempDir()))
	if s == nil {
		t.Fatal("NewBackupService returned nil")
	}

	// 非法 cron 表达式只禁用调度，手工触发仍然可用
	cfg := backupTestConfig(t.TempDir())
	cfg.Backup.Cron = "not a cron"
	s = NewBackupService(store, zap.NewNop(), cfg)
	if s.(*backupService).schedule != nil {
		t.Error("expected schedule to stay nil for an invalid cron expression")
	}

	cfg = backupTestConfig(t.TempDir())
	cfg.Backup.Cron = "0 3 * * *"
	s = NewBackupService(store, zap.NewNop(), cfg)
	if s.(*backupService).schedule == nil {
		t.Error("expected schedule to be set for a valid cron expression")
	}
}

func TestBackupService_RunDisabled(t *testing.T) {
	store, _ := memory.NewClient()
	cfg := backupTestConfig(t.TempDir())
	cfg.Backup.Enabled = false

	s := NewBackupService(store, zap.NewNop(), cfg)

	err := s.Run(context.Background())
	if !errors.Is(err, code.ErrorBackupConfigDisabled) {
		t.Errorf("expected ErrorBackupConfigDisabled, got %v", err)
	}
}

func TestBackupService_RunConcurrent(t *testing.T) {
	store, _ := memory.NewClient()
	s := NewBackupService(store, zap.NewNop(), backupTestConfig(t.TempDir())).(*backupService)

	s.running.Store(true)
	err := s.Run(context.Background())
	if !errors.Is(err, code.ErrorBackupTaskRunning) {
		t.Errorf("expected ErrorBackupTaskRunning, got %v", err)
	}
	s.running.Store(false)
}

func TestBackupService_RunArchive(t *testing.T) {
	store, _ := memory.NewClient()
	ctx := context.Background()

	_ = store.Set(ctx, DraftKey(1, "note-a"), `{"content":"alpha"}`)
	_ = store.Set(ctx, DraftKey(1, "sub/nested"), `{"content":"beta"}`)
	_ = store.Set(ctx, DraftKey(2, "other"), `{"content":"gamma"}`)
	_ = store.Set(ctx, "session:ignored", "not a draft")

	dir := t.TempDir()
	s := NewBackupService(store, zap.NewNop(), backupTestConfig(dir))

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	var zipPath string
	for _, e := range dirEntries {
		if strings.HasPrefix(e.Name(), "drafts_") && strings.HasSuffix(e.Name(), ".zip") {
			zipPath = filepath.Join(dir, e.Name())
		}
	}
	if zipPath == "" {
		t.Fatal("expected a drafts_*.zip archive in the backup dir")
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer r.Close()

	names := make(map[string]bool)
	for _, f := range r.File {
		names[f.Name] = true
	}
	for _, want := range []string{"manifest.json", "1/note-a.json", "1/sub/nested.json", "2/other.json"} {
		if !names[want] {
			t.Errorf("archive is missing %s, has %v", want, names)
		}
	}
	if names["session:ignored"] || names["session:ignored.json"] {
		t.Error("non-draft keys must not be exported")
	}
}

func TestBackupService_RunEmptyStore(t *testing.T) {
	store, _ := memory.NewClient()
	dir := t.TempDir()
	s := NewBackupService(store, zap.NewNop(), backupTestConfig(dir))

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	dirEntries, _ := os.ReadDir(dir)
	if len(dirEntries) != 0 {
		t.Errorf("expected no archive for an empty store, found %d entries", len(dirEntries))
	}
}

func TestBackupService_ExportRecords(t *testing.T) {
	store, _ := memory.NewClient()
	ctx := context.Background()

	_ = store.Set(ctx, DraftKey(7, "ok"), "data")
	_ = store.Set(ctx, "draft:7:../escape", "data")
	_ = store.Set(ctx, "unrelated", "data")

	s := &backupService{
		store:  store,
		logger: zap.NewNop(),
		config: backupTestConfig(t.TempDir()),
	}

	dir := t.TempDir()
	entries, written, err := s.exportRecords(ctx, dir)
	if err != nil {
		t.Fatalf("exportRecords failed: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Key != DraftKey(7, "ok") {
		t.Errorf("unexpected entry key %s", entries[0].Key)
	}
	if _, ok := written[filepath.Join("7", "ok.json")]; !ok {
		t.Errorf("expected 7/ok.json to be written, got %v", written)
	}
	if _, err := os.Stat(filepath.Join(dir, "7", "ok.json")); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}

func TestBackupService_GitMirror(t *testing.T) {
	store, _ := memory.NewClient()
	ctx := context.Background()

	_ = store.Set(ctx, DraftKey(1, "note-a"), `{"content":"alpha"}`)

	dir := t.TempDir()
	cfg := backupTestConfig(dir)
	cfg.Backup.GitEnabled = true

	s := NewBackupService(store, zap.NewNop(), cfg).(*backupService)

	if err := s.run(ctx, false); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	repoPath := filepath.Join(dir, "repo")
	if _, err := os.Stat(filepath.Join(repoPath, "1", "note-a.json")); err != nil {
		t.Fatalf("mirror file missing: %v", err)
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		t.Fatalf("PlainOpen failed: %v", err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("CommitObject failed: %v", err)
	}
	if !strings.HasPrefix(commit.Message, "drafts backup ") {
		t.Errorf("unexpected commit message %q", commit.Message)
	}

	// 草稿删除后镜像同步移除
	_ = store.Remove(ctx, DraftKey(1, "note-a"))
	_ = store.Set(ctx, DraftKey(1, "note-b"), `{"content":"beta"}`)

	if err := s.run(ctx, false); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(repoPath, "1", "note-a.json")); !errors.Is(err, os.ErrNotExist) {
		t.Error("stale mirror file should be removed")
	}
	if _, err := os.Stat(filepath.Join(repoPath, "1", "note-b.json")); err != nil {
		t.Errorf("new mirror file missing: %v", err)
	}
}

func TestBackupService_CleanupArchives(t *testing.T) {
	dir := t.TempDir()
	cfg := backupTestConfig(dir)
	cfg.Backup.Retention = time.Hour

	stale := time.Now().Add(-2 * time.Hour)

	old := filepath.Join(dir, "drafts_20240101_000000.zip")
	if err := os.WriteFile(old, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	recent := filepath.Join(dir, "drafts_20990101_000000.zip")
	if err := os.WriteFile(recent, []byte("recent"), 0644); err != nil {
		t.Fatal(err)
	}

	other := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(other, []byte("keep"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(other, stale, stale); err != nil {
		t.Fatal(err)
	}

	store, _ := memory.NewClient()
	s := &backupService{
		store:  store,
		logger: zap.NewNop(),
		config: cfg,
	}
	s.cleanupArchives(time.Now())

	if _, err := os.Stat(old); !errors.Is(err, os.ErrNotExist) {
		t.Error("expired archive should be removed")
	}
	if _, err := os.Stat(recent); err != nil {
		t.Error("recent archive should be kept")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("files outside the drafts_*.zip pattern should be left alone")
	}
}

func TestBackupService_NotifyUpdated(t *testing.T) {
	store, _ := memory.NewClient()
	cfg := backupTestConfig(t.TempDir())
	cfg.Backup.GitEnabled = true

	s := NewBackupService(store, zap.NewNop(), cfg).(*backupService)

	// 同一 uid 的重复通知合并为一个防抖定时器
	s.NotifyUpdated(42)
	s.NotifyUpdated(42)

	s.timerMu.Lock()
	timers := len(s.syncTimers)
	s.timerMu.Unlock()
	if timers != 1 {
		t.Errorf("expected a single debounce timer per uid, got %d", timers)
	}

	// 镜像未开启时不记防抖标记
	cfg2 := backupTestConfig(t.TempDir())
	s2 := NewBackupService(store, zap.NewNop(), cfg2).(*backupService)
	s2.NotifyUpdated(42)

	s2.timerMu.Lock()
	timers = len(s2.syncTimers)
	s2.timerMu.Unlock()
	if timers != 0 {
		t.Errorf("expected no timer when the git mirror is disabled, got %d", timers)
	}
}

func TestBackupService_ExecuteTaskBackups(t *testing.T) {
	store, _ := memory.NewClient()
	cfg := backupTestConfig(t.TempDir())
	cfg.Backup.GitEnabled = true

	s := NewBackupService(store, zap.NewNop(), cfg).(*backupService)

	// 1. No schedule and no pending flags
	if err := s.ExecuteTaskBackups(context.Background()); err != nil {
		t.Fatalf("ExecuteTaskBackups failed: %v", err)
	}

	// 2. Pending flag is drained and triggers a mirror run
	s.pendingSyncs.Store(int64(5), true)
	if err := s.ExecuteTaskBackups(context.Background()); err != nil {
		t.Fatalf("ExecuteTaskBackups failed: %v", err)
	}
	if _, ok := s.pendingSyncs.Load(int64(5)); ok {
		t.Error("pending flag should be drained")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestBackupService_Shutdown(t *testing.T) {
	store, _ := memory.NewClient()
	cfg := backupTestConfig(t.TempDir())
	cfg.Backup.GitEnabled = true

	s := NewBackupService(store, zap.NewNop(), cfg)
	s.NotifyUpdated(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}
