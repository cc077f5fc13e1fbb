package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	internalApp "github.com/haierkeys/draft-sync-service/internal/app"
	"github.com/haierkeys/draft-sync-service/internal/autosave"
	"github.com/haierkeys/draft-sync-service/pkg/fileurl"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore"
	"github.com/haierkeys/draft-sync-service/pkg/timex"

	"github.com/gookit/goutil/dump"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type verifyStoreFlags struct {
	dir    string // 项目根目录
	config string // 指定要使用的配置文件路径
}

func init() {
	verifyEnv := new(verifyStoreFlags)

	var verifyStoreCommand = &cobra.Command{
		Use:   "verify-store [-c config_file] [-d working_dir]",
		Short: "Round-trip a probe record through the configured store and exit. // 对配置的存储后端做一次探测读写并退出。",
		Run: func(cmd *cobra.Command, args []string) {
			if len(verifyEnv.dir) > 0 {
				if err := os.Chdir(verifyEnv.dir); err != nil {
					bootstrapLogger.Error("failed to change the current working directory", zap.Error(err))
					os.Exit(1)
				}
			}

			if len(verifyEnv.config) <= 0 {
				if fileurl.IsExist("config/config-dev.yaml") {
					verifyEnv.config = "config/config-dev.yaml"
				} else if fileurl.IsExist("config.yaml") {
					verifyEnv.config = "config.yaml"
				} else if fileurl.IsExist("config/config.yaml") {
					verifyEnv.config = "config/config.yaml"
				} else {
					// 探测不创建配置，没有配置说明服务从未初始化
					bootstrapLogger.Error("config file not found, run the service once or pass -c")
					os.Exit(1)
				}
			}

			if err := verifyStore(verifyEnv.config); err != nil {
				bootstrapLogger.Error("store verification failed", zap.Error(err))
				fmt.Println("store verification: FAILED")
				os.Exit(1)
			}
			fmt.Println("store verification: OK")
		},
	}

	verifyStoreCommand.Flags().StringVarP(&verifyEnv.config, "config", "c", "", "config file path")
	verifyStoreCommand.Flags().StringVarP(&verifyEnv.dir, "dir", "d", "", "working directory")

	rootCmd.AddCommand(verifyStoreCommand)
}

// verifyStore 将一条探测记录写入配置的后端，读回比对后删除，
// 任一步骤失败即返回错误
func verifyStore(configPath string) error {
	appConfig, configRealpath, err := internalApp.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	bootstrapLogger.Info("config loaded",
		zap.String("path", configRealpath),
		zap.String("store-type", appConfig.Store.Type))
	if os.Getenv("DEBUG") != "" {
		dump.P(appConfig.GetStoreConfig())
	}

	if err := initStorageWithConfig(appConfig); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	store, err := kvstore.NewClient(appConfig.GetStoreConfig(), kvstore.WithLogger(bootstrapLogger))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	key := fmt.Sprintf("verify:probe:%d", now.UnixNano())
	value, err := autosave.EncodeRecord(autosave.Record{
		Title:   "probe",
		Content: "store verification probe",
		SavedAt: timex.Time(now),
	})
	if err != nil {
		return fmt.Errorf("encode probe: %w", err)
	}

	if err := store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("write probe: %w", err)
	}
	bootstrapLogger.Info("probe written", zap.String("key", key))

	got, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read probe back: %w", err)
	}
	record, err := autosave.DecodeRecord(key, got)
	if err != nil {
		return fmt.Errorf("decode probe: %w", err)
	}
	if record.Title != "probe" || record.Content != "store verification probe" {
		return fmt.Errorf("probe mismatch: got title=%q", record.Title)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	found := false
	for _, k := range keys {
		if k == key {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("probe key missing from listing (%d keys)", len(keys))
	}
	bootstrapLogger.Info("probe listed", zap.Int("total-keys", len(keys)))

	if err := store.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove probe: %w", err)
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, kvstore.ErrNotExist) {
		return fmt.Errorf("probe still readable after remove: %v", err)
	}
	bootstrapLogger.Info("probe removed", zap.String("key", key))

	return nil
}
