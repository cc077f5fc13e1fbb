package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"

	"go.uber.org/zap"
	"golang.ngrok.com/ngrok/v2"
)

// NgrokService exposes the local sync API through an ngrok tunnel,
// letting editor clients outside the LAN reach the service without
// port forwarding.
// NgrokService 通过 ngrok 隧道暴露本地同步接口，
// 局域网外的编辑器客户端无需端口映射即可接入
type NgrokService interface {
	Start(ctx context.Context, addr string) error
	Stop(ctx context.Context) error
	TunnelURL() string
}

type ngrokService struct {
	logger    *zap.Logger
	authToken string
	domain    string
	listener  net.Listener
	url       string
	agent     ngrok.Agent
}

// NewNgrokService creates a new ngrok service
// NewNgrokService 创建一个新的 ngrok 服务
func NewNgrokService(logger *zap.Logger, authToken, domain string) NgrokService {
	return &ngrokService{
		logger:    logger,
		authToken: authToken,
		domain:    domain,
	}
}

// Start 建立隧道并把进来的连接转发到本地监听地址
// 配置了固定域名时用固定域名，否则由 ngrok 分配
func (s *ngrokService) Start(ctx context.Context, addr string) error {
	if s.authToken == "" {
		return fmt.Errorf("ngrok auth token is required")
	}

	agent, err := ngrok.NewAgent(ngrok.WithAuthtoken(s.authToken))
	if err != nil {
		return fmt.Errorf("failed to create ngrok agent: %w", err)
	}
	s.agent = agent

	var endpointOpts []ngrok.EndpointOption
	if s.domain != "" {
		endpointOpts = append(endpointOpts, ngrok.WithURL("https://"+s.domain))
	}

	ln, err := agent.Listen(ctx, endpointOpts...)
	if err != nil {
		return fmt.Errorf("failed to start ngrok tunnel: %w", err)
	}
	s.listener = ln
	s.url = listenerURL(ln)

	s.logger.Info("ngrok tunnel established",
		zap.String("url", s.url),
		zap.String("forward", addr))

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				s.logger.Debug("ngrok tunnel accept error (likely closed)", zap.Error(err))
				return
			}
			go s.handleConn(conn, addr)
		}
	}()

	return nil
}

// listenerURL 取隧道对外地址，SDK 小版本间 URL 的返回类型不一致
func listenerURL(ln net.Listener) string {
	if u, ok := ln.(interface{ URL() *url.URL }); ok {
		return u.URL().String()
	}
	if u, ok := ln.(interface{ URL() string }); ok {
		return u.URL()
	}
	return ln.Addr().String()
}

// handleConn 把一条隧道连接按原始 TCP 双向转发到本地地址
// 任一方向断开即关闭两端，websocket 长连接同样按普通 TCP 处理
func (s *ngrokService) handleConn(conn net.Conn, addr string) {
	defer conn.Close()
	localConn, err := net.Dial("tcp", addr)
	if err != nil {
		s.logger.Error("failed to dial local address", zap.String("addr", addr), zap.Error(err))
		return
	}
	defer localConn.Close()

	done := make(chan struct{}, 2)
	go func() {
		_, _ = io.Copy(localConn, conn)
		done <- struct{}{}
	}()
	go func() {
		_, _ = io.Copy(conn, localConn)
		done <- struct{}{}
	}()
	<-done
}

// Stop 关闭隧道并断开 agent 连接
func (s *ngrokService) Stop(ctx context.Context) error {
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}
	if s.agent != nil {
		if err := s.agent.Disconnect(); err != nil {
			s.logger.Warn("failed to disconnect ngrok agent", zap.Error(err))
		}
	}
	return nil
}

// TunnelURL returns the current tunnel URL
// TunnelURL 返回当前隧道 URL
func (s *ngrokService) TunnelURL() string {
	return s.url
}

var _ NgrokService = (*ngrokService)(nil)
