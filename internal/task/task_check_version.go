package task

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haierkeys/draft-sync-service/internal/app"
	pkgapp "github.com/haierkeys/draft-sync-service/pkg/app"
	"golang.org/x/mod/semver"
)

const (
	ServiceVersionURL = "https://img.shields.io/github/v/release/haierkeys/draft-sync-service.json"
	ClientVersionURL  = "https://img.shields.io/github/v/tag/haierkeys/obsidian-draft-sync.json"
)

type ShieldsJSON struct {
	Message string `json:"message"`
}

// CheckVersionTask 周期拉取最新发布版本，供版本接口返回升级提示
type CheckVersionTask struct {
	app *app.App
}

func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		// 配置关闭版本检查时不注册任务
		if !appContainer.Config().App.CheckVersion {
			return nil, nil
		}
		return &CheckVersionTask{
			app: appContainer,
		}, nil
	})
}

func (t *CheckVersionTask) Name() string {
	return "check_version"
}

func (t *CheckVersionTask) Run(ctx context.Context) error {
	serviceLatest, err := t.fetchVersion(ctx, ServiceVersionURL)
	if err != nil {
		return err
	}

	clientLatest, err := t.fetchVersion(ctx, ClientVersionURL)
	if err != nil {
		return err
	}

	current := ensureV(t.app.Version().Version)
	serviceLatest = ensureV(serviceLatest)
	clientLatest = ensureV(clientLatest)

	info := pkgapp.CheckVersionInfo{
		VersionNewName: serviceLatest,
		VersionIsNew:   semver.Compare(serviceLatest, current) > 0,
		// 客户端是否有新版本要等请求带上自身版本才能比较，
		// 这里只记录最新版本名，比较逻辑在 App.CheckVersion 中。
		ClientVersionNewName: clientLatest,
	}

	t.app.SetCheckVersionInfo(info)

	return nil
}

// ensureV semver 比较要求 v 前缀，shields 返回的 tag 不带
func ensureV(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

func (t *CheckVersionTask) fetchVersion(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var sj ShieldsJSON
	if err := json.Unmarshal(body, &sj); err != nil {
		return "", err
	}

	return sj.Message, nil
}

func (t *CheckVersionTask) LoopInterval() time.Duration {
	return 30 * time.Minute
}

func (t *CheckVersionTask) IsStartupRun() bool {
	return true
}
