package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/haierkeys/draft-sync-service/global"
	internalApp "github.com/haierkeys/draft-sync-service/internal/app"
	"github.com/haierkeys/draft-sync-service/internal/routers"
	"github.com/haierkeys/draft-sync-service/internal/service"
	"github.com/haierkeys/draft-sync-service/internal/task"
	"github.com/haierkeys/draft-sync-service/pkg/kvstore"
	"github.com/haierkeys/draft-sync-service/pkg/logger"
	"github.com/haierkeys/draft-sync-service/pkg/safe_close"
	"github.com/haierkeys/draft-sync-service/pkg/util"
	"github.com/haierkeys/draft-sync-service/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	validatorV10 "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"go.uber.org/zap"
)

// defaultSecretKeys 已知的默认密钥，出现时视为未配置
var defaultSecretKeys = []string{
	"6666",
	"draft-sync-Auth-Token",
	"",
}

type Server struct {
	logger            *zap.Logger
	config            *internalApp.AppConfig
	ut                *ut.UniversalTranslator // 参数校验错误的翻译器
	httpServer        *http.Server
	privateHttpServer *http.Server
	sc                *safe_close.SafeClose
	app               *internalApp.App
}

// ensureSecurityConfig ensures secrets are present, generating and persisting them on first boot
// ensureSecurityConfig 检查安全配置，密钥缺失时自动生成并回写配置文件
func ensureSecurityConfig(cfg *internalApp.AppConfig, lg *zap.Logger) {
	changed := false

	isDefault := false
	for _, key := range defaultSecretKeys {
		if cfg.Security.AuthTokenKey == key {
			isDefault = true
			break
		}
	}
	if isDefault {
		cfg.Security.AuthTokenKey = util.GetRandomString(32)
		changed = true
		if lg != nil {
			lg.Warn("security.auth-token-key was empty or default, generated a new one")
		}
	}

	if cfg.Security.SessionSecretHash == "" {
		secret := util.GetRandomString(24)
		hash, err := util.GeneratePasswordHash(secret)
		if err != nil {
			if lg != nil {
				lg.Error("failed to generate session secret hash", zap.Error(err))
			}
			return
		}
		cfg.Security.SessionSecretHash = hash
		changed = true

		// The plaintext secret is shown exactly once, only the bcrypt hash is persisted
		// 明文密钥只在这里显示一次，配置文件中仅保存 bcrypt 哈希
		fmt.Println()
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println("🔑  A session secret has been generated for this server.")
		fmt.Println()
		fmt.Println("    Secret: " + secret)
		fmt.Println()
		fmt.Println("Clients must present this secret to open a session.")
		fmt.Println("It will NOT be shown again, note it down now.")
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println()

		if lg != nil {
			lg.Warn("security.session-secret-hash was empty, generated a new secret")
		}
	}

	if changed {
		if err := cfg.Save(); err != nil {
			if lg != nil {
				lg.Error("failed to persist generated secrets to config file", zap.Error(err))
			}
		}
	}
}

func NewServer(runEnv *runFlags) (*Server, error) {
	appConfig, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 命令行的运行模式与端口优先于配置文件
	runMode := runEnv.runMode
	if runMode == "" {
		runMode = appConfig.Server.RunMode
	}
	if runMode != "" {
		gin.SetMode(runMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if runEnv.port != "" {
		appConfig.Server.HttpPort = ":" + strings.TrimPrefix(runEnv.port, ":")
	}

	s := &Server{
		config: appConfig,
		sc:     safe_close.NewSafeClose(),
	}

	if err := initLoggerWithConfig(s, appConfig); err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}

	ensureSecurityConfig(appConfig, s.logger)

	if err := initStorageWithConfig(appConfig); err != nil {
		return nil, fmt.Errorf("initStorage: %w", err)
	}

	app, err := internalApp.NewApp(appConfig, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create app container: %w", err)
	}
	s.app = app

	uni, err := initValidator()
	if err != nil {
		return nil, fmt.Errorf("initValidator: %w", err)
	}
	s.ut = uni

	validator.RegisterCustom()

	initScheduler(s)

	banner := `
    ____              ______     _____
   / __ \_________ _/ __/ /_    / ___/__  ______  _____
  / / / / ___/ __  / /_/ __/    \__ \/ / / / __ \/ ___/
 / /_/ / /  / /_/ / __/ /_     ___/ / /_/ / / / / /__
/_____/_/   \__,_/_/  \__/    /____/\__, /_/ /_/\___/
                                   /____/             `
	s.logger.Warn(fmt.Sprintf("%s\n\n%s v%s\nGit: %s\nBuildTime: %s\n", banner, internalApp.Name, internalApp.Version, internalApp.GitTag, internalApp.BuildTime))

	s.logger.Warn("config loaded", zap.String("path", configRealpath))

	if httpAddr := appConfig.Server.HttpPort; httpAddr != "" {
		s.logger.Warn("api_router", zap.String("config.server.HttpPort", httpAddr))
		s.httpServer = s.newHTTPServer(httpAddr, routers.NewRouter(s.app, s.ut))
		s.attachServer("api service", s.httpServer)

		// Expose the API through an ngrok tunnel when enabled
		// 启用时通过 ngrok 隧道对外暴露 API
		if appConfig.Ngrok.Enabled {
			s.attachNgrok(appConfig, httpAddr)
		}
	}

	if privateAddr := appConfig.Server.PrivateHttpListen; privateAddr != "" {
		s.logger.Info("api_router", zap.String("config.server.PrivateHttpListen", privateAddr))
		s.privateHttpServer = s.newHTTPServer(privateAddr, routers.NewPrivateRouterWithLogger(appConfig.Server.RunMode, s.logger))
		s.attachServer("private api service", s.privateHttpServer)
	}

	// App Container 的优雅关闭挂在最后，HTTP 服务器停止后执行
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		if s.app != nil {
			ctx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
			defer cancel()

			if err := s.app.Shutdown(ctx); err != nil {
				s.logger.Error("failed to shutdown app container", zap.Error(err))
			} else {
				s.logger.Info("App container shutdown gracefully")
			}
		}
	})

	return s, nil
}

// newHTTPServer 按配置的读写超时构造 HTTP 服务器
func (s *Server) newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(s.config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

// attachServer registers srv with the safe close manager: a listen error
// brings the whole process down, a close signal shuts srv down with a
// bounded grace period.
// attachServer 把 HTTP 服务器挂到安全关闭管理器上，监听出错触发整体退出，
// 收到关闭信号时限时停机。
func (s *Server) attachServer(name string, srv *http.Server) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			s.logger.Error(name+" err", zap.Error(err))
			s.sc.SendCloseSignal(err)
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error(name+" shutdown error", zap.Error(err))
			}
		}
	})
}

// attachNgrok 通过 ngrok 隧道把本地 API 端口转发到公网
func (s *Server) attachNgrok(cfg *internalApp.AppConfig, httpAddr string) {
	forwardAddr := httpAddr
	if strings.HasPrefix(forwardAddr, ":") {
		forwardAddr = "127.0.0.1" + forwardAddr
	}
	ngrokSvc := service.NewNgrokService(s.logger, cfg.Ngrok.AuthToken, cfg.Ngrok.Domain)
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		if err := ngrokSvc.Start(context.Background(), forwardAddr); err != nil {
			s.logger.Error("ngrok tunnel err", zap.Error(err))
			return
		}
		s.logger.Warn("ngrok tunnel online", zap.String("url", ngrokSvc.TunnelURL()))
		<-closeSignal

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ngrokSvc.Stop(ctx); err != nil {
			s.logger.Error("ngrok tunnel stop error", zap.Error(err))
		}
	})
}

// initScheduler 注册并启动定时任务
func initScheduler(s *Server) {
	manager := task.NewManager(s.logger, s.sc, s.app)
	if err := manager.RegisterTasks(); err != nil {
		s.logger.Error("failed to register tasks", zap.Error(err))
		return
	}
	manager.Start()
}

// initLoggerWithConfig 初始化日志器并接入 global，
// pkg/app 层通过 global 取日志器与运行开关
func initLoggerWithConfig(s *Server, cfg *internalApp.AppConfig) error {
	lg, err := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Production: cfg.Log.Production,
	})
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	s.logger = lg

	global.Logger = lg
	global.Config.App = global.AppSettings{
		IsReturnSuccess: cfg.App.IsReturnSuccess,
		DefaultLang:     cfg.App.DefaultLang,
	}

	return nil
}

// initValidator 接管 gin 的参数校验器并注册中英文翻译
func initValidator() (*ut.UniversalTranslator, error) {
	customValidator := validator.NewCustomValidator()
	customValidator.Engine()
	binding.Validator = customValidator
	global.Validator = customValidator

	var uni *ut.UniversalTranslator

	validate, ok := binding.Validator.Engine().(*validatorV10.Validate)
	if ok {
		// 校验错误里用 json tag 名而不是结构体字段名
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		uni = ut.New(en.New(), en.New(), zh.New())

		zhTran, _ := uni.GetTranslator("zh")
		enTran, _ := uni.GetTranslator("en")

		err := zh_translations.RegisterDefaultTranslations(validate, zhTran)
		if err != nil {
			return nil, err
		}
		err = en_translations.RegisterDefaultTranslations(validate, enTran)
		if err != nil {
			return nil, err
		}
	}

	return uni, nil
}

// initStorageWithConfig 创建日志、备份与存储后端需要的本地目录
func initStorageWithConfig(cfg *internalApp.AppConfig) error {
	dirs := []string{
		filepath.Dir(cfg.Log.File),
		cfg.Backup.Dir,
	}

	// 按存储后端补充本地目录
	switch cfg.Store.Type {
	case kvstore.LocalFS:
		dirs = append(dirs, cfg.Store.SavePath)
	case kvstore.Bolt:
		dirs = append(dirs, filepath.Dir(cfg.Store.Path))
	case kvstore.Database:
		if cfg.Store.DBType == "sqlite" {
			dirs = append(dirs, filepath.Dir(cfg.Store.DBPath))
		}
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0754); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetApp 获取 App Container
func (s *Server) GetApp() *internalApp.App {
	return s.app
}

// GetConfig 获取应用配置
func (s *Server) GetConfig() *internalApp.AppConfig {
	return s.config
}
