package routers

import (
	"time"

	"github.com/haierkeys/draft-sync-service/internal/app"
	"github.com/haierkeys/draft-sync-service/internal/dto"
	"github.com/haierkeys/draft-sync-service/internal/middleware"
	"github.com/haierkeys/draft-sync-service/internal/routers/api_router"
	"github.com/haierkeys/draft-sync-service/internal/routers/websocket_router"
	pkgapp "github.com/haierkeys/draft-sync-service/pkg/app"
	"github.com/haierkeys/draft-sync-service/pkg/code"
	"github.com/haierkeys/draft-sync-service/pkg/limiter"
	"github.com/haierkeys/draft-sync-service/pkg/timex"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
)

var methodLimiters = limiter.NewMethodLimiter().AddBuckets(
	limiter.BucketRule{
		Key:          "/api/session",
		FillInterval: time.Second,
		Capacity:     10,
		Quantum:      10,
	},
)

func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	var wss = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:  true,
			ParallelEnabled:   true,                                 // 开启并行消息处理
			Recovery:          gws.Recovery,                         // 开启异常恢复
			PermessageDeflate: gws.PermessageDeflate{Enabled: true}, // 开启压缩
			ParallelGolimit:   8,
			// 草稿为纯文本，上限取文档大小限制的数倍即可
			ReadMaxPayloadSize:  1024 * 1024 * 4,
			WriteMaxPayloadSize: 1024 * 1024 * 4,
		},
	})

	// 创建 WebSocket Handlers（注入 App Container）
	draftWSHandler := websocket_router.NewDraftWSHandler(appContainer)

	// 编辑，重置防抖窗口
	wss.Use(dto.DraftEdit, draftWSHandler.DraftEdit)
	// 立即保存
	wss.Use(dto.DraftSave, draftWSHandler.DraftSave)
	// 清除
	wss.Use(dto.DraftClear, draftWSHandler.DraftClear)
	// 获取快照
	wss.Use(dto.DraftGet, draftWSHandler.DraftGet)
	// 保存状态查询
	wss.Use(dto.DraftStatus, draftWSHandler.DraftStatus)

	// Authorization 动作携带会话凭证，由 SessionService 解析
	wss.SessionParseUse(func(c *pkgapp.WebsocketClient, token string) (*pkgapp.SessionEntity, error) {
		return appContainer.SessionService.ParseToken(token)
	})

	// 状态迁移经 worker pool 推送给同 uid 的全部连接
	appContainer.SetStatusBroadcast(func(uid int64, slug string, status string, savedAt timex.Time) {
		wss.BroadcastToUser(uid, code.Success.WithData(&dto.DraftStatusSyncDTO{
			Slug:        slug,
			Status:      status,
			LastSavedAt: savedAt,
		}), dto.DraftStatusSync)
	})

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(gin.Logger())
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		sessionHandler := api_router.NewSessionHandler(appContainer)
		draftHandler := api_router.NewDraftHandler(appContainer, wss)
		versionHandler := api_router.NewVersionHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)
		statsHandler := api_router.NewStatsHandler(appContainer, wss)
		backupHandler := api_router.NewBackupHandler(appContainer)

		// 开放接口（无需认证）
		api.POST("/session", sessionHandler.Create)
		api.GET("/version", versionHandler.ServerVersion)
		api.GET("/health", healthHandler.Check)
		api.GET("/sync", wss.Run())

		// 草稿接口，会话凭证认证
		draft := api.Group("")
		draft.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey))
		{
			draft.PUT("/draft", draftHandler.Edit)
			draft.POST("/draft/save", draftHandler.Save)
			draft.DELETE("/draft", draftHandler.Clear)
			draft.GET("/draft", draftHandler.Get)
			draft.GET("/draft/status", draftHandler.Status)
			draft.GET("/draft/diff", draftHandler.Diff)
			draft.GET("/drafts", draftHandler.List)
		}

		// 管理接口，共享管理令牌认证
		admin := api.Group("/admin")
		admin.Use(middleware.SimpleAuthTokenWithConfig(cfg.Security.PrivateAuthToken))
		{
			admin.GET("/stats", statsHandler.Stats)
			admin.POST("/backup/run", backupHandler.Run)
		}
	}

	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	return r
}
