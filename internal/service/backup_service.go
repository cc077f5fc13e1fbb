package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haierkeys/draft-sync-service/pkg/code"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore"
	"github.com/haierkeys/draft-sync-service/pkg/logger"
	"github.com/haierkeys/draft-sync-service/pkg/timex"
	"github.com/haierkeys/draft-sync-service/pkg/util"

	"github.com/bytedance/sonic"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var errNoUpdates = errors.New("no drafts to back up")

// backupDebounceDelay 草稿落盘后到标记镜像待同步的防抖时长
const backupDebounceDelay = 30 * time.Second

// BackupService defines the business service interface for draft backups
// 定义草稿备份业务服务接口
type BackupService interface {
	// Run 立即执行一次导出归档，管理端手工触发使用
	Run(ctx context.Context) error
	// ExecuteTaskBackups 由调度任务周期调用，检查 cron 到期与防抖标记
	ExecuteTaskBackups(ctx context.Context) error
	// NotifyUpdated 草稿落盘后记一次防抖标记，驱动增量镜像
	NotifyUpdated(uid int64)
	// Shutdown 停止后台任务并等待在途备份结束
	Shutdown(ctx context.Context) error
}

type backupService struct {
	store  kvstore.Store
	logger *zap.Logger
	config *ServiceConfig

	schedule cron.Schedule
	nextRun  time.Time // 仅调度任务协程读写

	running atomic.Bool

	syncTimers   map[int64]*time.Timer
	timerMu      sync.Mutex
	pendingSyncs sync.Map // key: uid (int64), value: bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBackupService creates BackupService instance
// 创建 BackupService 实例
func NewBackupService(store kvstore.Store, logger *zap.Logger, cfg *ServiceConfig) BackupService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &backupService{
		store:      store,
		logger:     logger,
		config:     cfg,
		syncTimers: make(map[int64]*time.Timer),
		ctx:        ctx,
		cancel:     cancel,
	}

	if cfg != nil && cfg.Backup.Enabled && cfg.Backup.Cron != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		schedule, err := parser.Parse(cfg.Backup.Cron)
		if err != nil {
			logger.Error("backup cron expression invalid, scheduled backups disabled",
				zap.String("cron", cfg.Backup.Cron),
				zap.Error(err))
		} else {
			s.schedule = schedule
			s.nextRun = schedule.Next(time.Now())
		}
	}

	return s
}

// backupManifest 归档内的清单文件，记录每条导出的完整性信息
type backupManifest struct {
	GeneratedAt timex.Time            `json:"generatedAt"`
	Count       int                   `json:"count"`
	TotalSize   int64                 `json:"totalSize"`
	Entries     []backupManifestEntry `json:"entries"`
}

type backupManifestEntry struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
	MD5  string `json:"md5"`
}

// Run 立即执行一次导出归档
func (s *backupService) Run(ctx context.Context) error {
	return s.run(ctx, true)
}

// ExecuteTaskBackups Poll the schedule and the pending flags once
// 检查一次调度到期与防抖标记
func (s *backupService) ExecuteTaskBackups(ctx context.Context) error {
	if s.config == nil || !s.config.Backup.Enabled {
		return nil
	}

	now := time.Now()

	pending := false
	s.pendingSyncs.Range(func(key, _ any) bool {
		s.pendingSyncs.Delete(key)
		pending = true
		return true
	})

	due := s.schedule != nil && now.After(s.nextRun)
	if due {
		s.nextRun = s.schedule.Next(now)
	}

	// 防抖标记只驱动 git 镜像，归档仅按 cron 产出
	if !due && !(pending && s.config.Backup.GitEnabled) {
		return nil
	}

	s.logger.Info("triggering draft backup",
		zap.Bool("scheduled", due),
		zap.Bool("pending", pending))

	go func(archive bool) {
		// 使用服务自身的 context，调度 tick 的 context 不约束备份时长
		if err := s.run(s.ctx, archive); err != nil && !errors.Is(err, code.ErrorBackupTaskRunning) {
			s.logger.Error("draft backup run failed", zap.Error(err))
		}
	}(due)

	return nil
}

// run Core entry point, archive selects zip export in addition to the mirror
// 备份核心入口，archive 控制是否在镜像之外产出 zip 归档
func (s *backupService) run(ctx context.Context, archive bool) error {
	if s.config == nil || !s.config.Backup.Enabled {
		return code.ErrorBackupConfigDisabled
	}
	if !s.running.CompareAndSwap(false, true) {
		return code.ErrorBackupTaskRunning
	}
	defer s.running.Store(false)

	s.wg.Add(1)
	defer s.wg.Done()

	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	startTime := time.Now()
	s.logger.Info("draft backup started",
		zap.Bool("archive", archive),
		zap.Bool("git", s.config.Backup.GitEnabled))

	var runErr error
	if archive {
		if err := s.runArchive(ctx, startTime); err != nil {
			if errors.Is(err, errNoUpdates) {
				s.logger.Info("draft backup skipped, store is empty")
			} else {
				runErr = err
			}
		}
	}
	if runErr == nil && s.config.Backup.GitEnabled {
		if err := s.runMirror(ctx, startTime); err != nil {
			runErr = err
		}
	}

	if runErr != nil {
		s.logger.Error("draft backup failed", zap.Error(runErr))
		return code.ErrorBackupRunFailed.WithDetails(runErr.Error())
	}

	s.logger.Info("draft backup completed",
		zap.Duration("elapsed", time.Since(startTime)))
	return nil
}

// runArchive Export every record to a temp directory, zip it into the backup
// directory and clean up expired archives
// 导出全部记录到临时目录，打包进备份目录并清理过期归档
func (s *backupService) runArchive(ctx context.Context, startTime time.Time) error {
	tempDir, err := os.MkdirTemp("", "draft_backup_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tempDir)

	entries, _, err := s.exportRecords(ctx, tempDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errNoUpdates
	}

	manifest := backupManifest{
		GeneratedAt: timex.Time(startTime),
		Count:       len(entries),
		Entries:     entries,
	}
	for _, e := range entries {
		manifest.TotalSize += e.Size
	}
	data, err := sonic.Marshal(manifest)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(tempDir, "manifest.json"), data, 0644); err != nil {
		return err
	}

	if err := os.MkdirAll(s.config.Backup.Dir, 0755); err != nil {
		return err
	}
	zipName := fmt.Sprintf("drafts_%s.zip", startTime.Format("20060102_150405"))
	if err := util.Zip(tempDir, filepath.Join(s.config.Backup.Dir, zipName)); err != nil {
		return err
	}

	s.logger.Info("draft archive written",
		zap.String("file", zipName),
		zap.Int("drafts", manifest.Count),
		zap.Int64("bytes", manifest.TotalSize))

	s.cleanupArchives(startTime)
	return nil
}

// runMirror Mirror the store into a git worktree, commit and optionally push
// 将存储镜像到 git 工作树，提交并按配置推送远端
func (s *backupService) runMirror(ctx context.Context, startTime time.Time) error {
	repoPath := filepath.Join(s.config.Backup.Dir, "repo")
	if err := os.MkdirAll(repoPath, 0755); err != nil {
		return err
	}

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		if !errors.Is(err, git.ErrRepositoryNotExists) {
			return err
		}
		repo, err = git.PlainInit(repoPath, false)
		if err != nil {
			return fmt.Errorf("git init failed: %w", err)
		}
	}

	if s.config.Backup.GitRemote != "" {
		_, err = repo.CreateRemote(&config.RemoteConfig{
			Name: "origin",
			URLs: []string{s.config.Backup.GitRemote},
		})
		if err != nil && !errors.Is(err, git.ErrRemoteExists) {
			return err
		}
	}

	_, written, err := s.exportRecords(ctx, repoPath)
	if err != nil {
		return err
	}

	// 清除草稿已不存在的镜像文件，镜像与存储保持一一对应
	err = filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(repoPath, path)
		if err != nil {
			return err
		}
		if _, ok := written[rel]; !ok {
			return os.Remove(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	status, err := wt.Status()
	if err != nil {
		return err
	}
	if status.IsClean() {
		s.logger.Info("draft mirror unchanged, nothing to commit")
		return nil
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return err
	}
	_, err = wt.Commit(fmt.Sprintf("drafts backup %s", startTime.Format("2006-01-02 15:04:05")), &git.CommitOptions{
		Author: &object.Signature{
			Name:  "draft-sync-service",
			Email: "backup@draft-sync-service.local",
			When:  startTime,
		},
	})
	if err != nil {
		return err
	}

	if s.config.Backup.GitRemote != "" {
		auth := &http.BasicAuth{
			Username: s.config.Backup.GitUsername,
			Password: s.config.Backup.GitPassword,
		}
		if err := repo.Push(&git.PushOptions{Auth: auth}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("git push failed: %w", err)
		}
	}

	s.logger.Info("draft mirror committed", zap.Int("files", len(written)))
	return nil
}

// exportRecords Write every draft record under targetDir as {uid}/{slug}.json
// and report the manifest entries plus the set of relative paths written
// 将每条草稿记录写入 targetDir 下的 {uid}/{slug}.json，
// 返回清单条目和已写入的相对路径集合
func (s *backupService) exportRecords(ctx context.Context, targetDir string) ([]backupManifestEntry, map[string]struct{}, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(keys)

	var entries []backupManifestEntry
	written := make(map[string]struct{})
	for _, key := range keys {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		uid, slug, ok := SplitDraftKey(key)
		// 键校验挡掉了穿越，这里再挡一道历史脏数据
		if !ok || strings.Contains(slug, "..") {
			continue
		}
		value, err := s.store.Get(ctx, key)
		if err != nil {
			s.logger.Warn("draft export read failed",
				zap.String(logger.FieldKey, key),
				zap.Error(err))
			continue
		}
		rel := filepath.Join(strconv.FormatInt(uid, 10), filepath.FromSlash(slug)+".json")
		dest := filepath.Join(targetDir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return nil, nil, err
		}
		if err := os.WriteFile(dest, []byte(value), 0644); err != nil {
			return nil, nil, err
		}
		written[rel] = struct{}{}
		entries = append(entries, backupManifestEntry{
			Key:  key,
			Size: int64(len(value)),
			MD5:  util.EncodeMD5(value),
		})
	}

	return entries, written, nil
}

// cleanupArchives Remove archives older than the retention window
// 清理超过保留时长的归档文件
func (s *backupService) cleanupArchives(now time.Time) {
	retention := s.config.Backup.Retention
	if retention <= 0 {
		return
	}
	cutoff := now.Add(-retention)

	dirEntries, err := os.ReadDir(s.config.Backup.Dir)
	if err != nil {
		s.logger.Warn("backup dir scan failed", zap.Error(err))
		return
	}
	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "drafts_") || !strings.HasSuffix(name, ".zip") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.config.Backup.Dir, name)); err != nil {
			s.logger.Warn("expired archive remove failed",
				zap.String("file", name),
				zap.Error(err))
		} else {
			s.logger.Info("expired archive removed", zap.String("file", name))
		}
	}
}

// NotifyUpdated Trigger the debounced mirror flag for one client
// Called after a draft persists, marks the uid pending after backupDebounceDelay
// 触发防抖的镜像标记
// 草稿落盘后调用，延迟 backupDebounceDelay 后将该 uid 标记为待同步
func (s *backupService) NotifyUpdated(uid int64) {
	if s.config == nil || !s.config.Backup.Enabled || !s.config.Backup.GitEnabled {
		return
	}

	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	if timer, ok := s.syncTimers[uid]; ok {
		timer.Stop()
	}

	s.syncTimers[uid] = time.AfterFunc(backupDebounceDelay, func() {
		s.pendingSyncs.Store(uid, true)

		s.timerMu.Lock()
		delete(s.syncTimers, uid)
		s.timerMu.Unlock()
	})
}

// Shutdown Clean up resources and wait for the in-flight backup to finish
// 停止服务，清理资源并等待在途备份结束
func (s *backupService) Shutdown(ctx context.Context) error {
	s.cancel()

	s.timerMu.Lock()
	for uid, timer := range s.syncTimers {
		if timer.Stop() {
			s.logger.Debug("stopped pending mirror timer during shutdown", zap.Int64(logger.FieldUID, uid))
		}
	}
	s.syncTimers = make(map[int64]*time.Timer)
	s.timerMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("shutdown context expired before backup finished")
		return ctx.Err()
	}
}

var _ BackupService = (*backupService)(nil)
