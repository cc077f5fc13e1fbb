package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/draft-sync-service/global"
	"github.com/haierkeys/draft-sync-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type LogType string

const (
	WebSocketServerPingInterval         = 25
	WebSocketServerPingWait             = 40
	WebSocketServerPendingSaveWait      = 60
	ActionAuthorization                 = "Authorization"
	LogInfo                     LogType = "info"
	LogError                    LogType = "error"
	LogWarn                     LogType = "warn"
)

func log(t LogType, msg string, fields ...zap.Field) {

	if t == LogError {
		global.Logger.Error(msg, fields...)
	} else if t == LogWarn {
		global.Logger.Warn(msg, fields...)
	} else if t == LogInfo {
		global.Logger.Info(msg, fields...)
	}
}

// WebSocketMessage 按 action|payload 帧拆出的单条指令
type WebSocketMessage struct {
	Action string `json:"action"` // 操作类型，例如 "DraftEdit", "DraftSave", "DraftClear"
	Data   []byte `json:"data"`   // 操作负载，JSON 编码
}

type WebsocketServerConfig struct {
	GWSOption       gws.ServerOption
	PingInterval    time.Duration
	PingWait        time.Duration
	PendingSaveWait time.Duration
}

// PendingSaveEntry 记录一次尚未完成的手动保存请求
type PendingSaveEntry struct {
	CreatedAt time.Time
}

// WebsocketClient 保存单个 WebSocket 连接及其会话状态
type WebsocketClient struct {
	conn    *gws.Conn
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	server  *WebsocketServer
	Ctx     *gin.Context
	Session *SessionEntity
	SF      *singleflight.Group // 合并同连接上的并发读请求

	// TraceID 在升级时从 HTTP 请求截取，连接存续期间保持不变
	TraceID string

	// PendingSaves 标记保存动作尚未应答的草稿键，避免同键重复落盘
	PendingSaves   map[string]PendingSaveEntry
	PendingSavesMu sync.RWMutex
}

// Context 返回随连接关闭而取消的 context
func (c *WebsocketClient) Context() context.Context {
	return c.ctx
}

// BindAndValid 基于全局验证器解析并校验 WebSocket 消息负载
func (c *WebsocketClient) BindAndValid(data []byte, obj any) (bool, ValidErrors) {
	var errs ValidErrors

	if err := sonic.Unmarshal(data, obj); err != nil {
		errs = append(errs, &ValidError{
			Key:     "body",
			Message: "Invalid message format",
		})
		return false, errs
	}

	if err := global.Validator.Validate.Struct(obj); err != nil {

		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			v := c.Ctx.Value("trans")
			trans := v.(ut.Translator)

			for _, validationErr := range validationErrors {
				errs = append(errs, &ValidError{
					Key:     validationErr.Field(),
					Message: validationErr.Translate(trans),
				})
			}
		}
		return false, errs
	}
	return true, nil
}

// PingLoop 周期发送 Ping，并顺带清理超时的保存标记
func (c *WebsocketClient) PingLoop(pingInterval time.Duration, pendingSaveWait time.Duration) {
	ticker := time.NewTicker(pingInterval * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			log(LogInfo, "WebsocketServer Client Close Ping")
			return
		case <-ticker.C:
			if c.conn == nil {
				return
			}
			if err := c.conn.WritePing(nil); err != nil {
				log(LogError, "WebsocketServer Client Ping err", zap.Error(err))
				return
			}
			if n := c.CleanupExpiredPendingSaves(pendingSaveWait * time.Second); n > 0 {
				log(LogWarn, "WebsocketServer pending saves expired",
					zap.Int("count", n), zap.Int64("uid", c.Session.UID))
			}
		}
	}
}

// CleanupExpiredPendingSaves 删除超过 timeout 的保存标记，返回清理数量
func (c *WebsocketClient) CleanupExpiredPendingSaves(timeout time.Duration) int {
	c.PendingSavesMu.Lock()
	defer c.PendingSavesMu.Unlock()

	cleaned := 0
	now := time.Now()
	for key, entry := range c.PendingSaves {
		if now.Sub(entry.CreatedAt) > timeout {
			delete(c.PendingSaves, key)
			cleaned++
		}
	}
	return cleaned
}

// ClearAllPendingSaves 清空全部保存标记，返回清理数量
func (c *WebsocketClient) ClearAllPendingSaves() int {
	c.PendingSavesMu.Lock()
	defer c.PendingSavesMu.Unlock()

	count := len(c.PendingSaves)
	c.PendingSaves = make(map[string]PendingSaveEntry)
	return count
}

// ToResponse 将结果编码为 JSON 并发送给当前连接
func (c *WebsocketClient) ToResponse(codeObj *code.Code, action ...string) {

	var actionType string
	if len(action) > 0 {
		actionType = action[0]
	}
	if global.Config.App.IsReturnSuccess || actionType != "" ||
		codeObj.Code() > 200 || codeObj.HaveData() || codeObj.HaveDetails() {
		c.send(actionType, buildWSRes(codeObj), false, false)
	}
	codeObj.Reset()
}

// BroadcastResponse 将结果广播给同一 uid 的全部连接
// excludeSelf 为 true 时跳过当前连接
func (c *WebsocketClient) BroadcastResponse(codeObj *code.Code, excludeSelf bool, action ...string) {

	var actionType string
	if len(action) > 0 {
		actionType = action[0]
	}
	c.send(actionType, buildWSRes(codeObj), true, excludeSelf)
	codeObj.Reset()
}

func buildWSRes(codeObj *code.Code) Res {
	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.Lang.GetMessage(),
		Data:    codeObj.Data(),
	}
	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}
	if codeObj.HaveKey() {
		content.Key = codeObj.Key()
	}
	if codeObj.HaveContext() {
		content.Context = codeObj.Context()
	}
	return content
}

func (c *WebsocketClient) send(actionType string, content any, isBroadcast bool, isExcludeSelf bool) {
	responseBytes, _ := sonic.Marshal(content)
	if actionType != "" {
		responseBytes = []byte(fmt.Sprintf(`%s|%s`, actionType, string(responseBytes)))
	}
	if isBroadcast {
		c.broadcast(responseBytes, isExcludeSelf)
	} else {
		c.message(responseBytes)
	}
}

func (c *WebsocketClient) message(payload []byte) {
	c.conn.WriteMessage(gws.OpcodeText, payload)
}

func (c *WebsocketClient) broadcast(payload []byte, isExcludeSelf bool) {
	if c.Session == nil {
		return
	}
	var b = gws.NewBroadcaster(gws.OpcodeText, payload)
	defer b.Close()

	for _, uc := range c.server.userClientsSnapshot(c.Session.UID) {
		if uc.conn == nil {
			continue
		}
		if isExcludeSelf && uc.conn == c.conn {
			continue
		}

		_ = b.Broadcast(uc.conn)
	}
}

// closeWithDelay 给客户端留出读取错误响应的时间后再关闭连接
func (c *WebsocketClient) closeWithDelay(reason string) {
	time.Sleep(2 * time.Second)
	c.conn.WriteClose(1000, []byte(reason))
}

// ------------------------------------> WebsocketServer

type ConnStorage = map[*gws.Conn]*WebsocketClient

type WebsocketServer struct {
	handlers       map[string]func(*WebsocketClient, *WebSocketMessage)
	sessionHandler func(*WebsocketClient, string) (*SessionEntity, error)
	clients        ConnStorage
	userClients    map[int64]ConnStorage
	mu             sync.Mutex
	up             *gws.Upgrader
	upOnce         sync.Once
	config         *WebsocketServerConfig
}

func NewWebsocketServer(c WebsocketServerConfig) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if c.PendingSaveWait == 0 {
		c.PendingSaveWait = WebSocketServerPendingSaveWait
	}
	wss := WebsocketServer{
		handlers:    make(map[string]func(*WebsocketClient, *WebSocketMessage)),
		clients:     make(ConnStorage),
		userClients: make(map[int64]ConnStorage),
		config:      &c,
	}
	return &wss
}

func (w *WebsocketServer) Upgrade() {
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
}

func (w *WebsocketServer) Run() gin.HandlerFunc {

	return func(c *gin.Context) {

		w.upOnce.Do(w.Upgrade)
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			log(LogError, "WebsocketServer Start err", zap.Error(err))
			return
		}
		// 升级后 HTTP context 可能随请求结束失效，连接自带独立的 context
		ctx, cancel := context.WithCancel(context.Background())
		client := &WebsocketClient{
			conn:         socket,
			done:         make(chan struct{}),
			ctx:          ctx,
			cancel:       cancel,
			server:       w,
			Ctx:          c,
			TraceID:      c.GetString("trace_id"),
			SF:           new(singleflight.Group),
			PendingSaves: make(map[string]PendingSaveEntry),
		}
		w.AddClient(client)
		log(LogInfo, "WebsocketServer Start", zap.String("type", "ReadLoop"))
		go socket.ReadLoop()
	}
}

// Use 注册指定 action 的消息处理函数
func (w *WebsocketServer) Use(action string, handler func(*WebsocketClient, *WebSocketMessage)) {
	w.handlers[action] = handler
}

// SessionParseUse 注册会话令牌解析函数，Authorization 动作依赖它
func (w *WebsocketServer) SessionParseUse(handler func(*WebsocketClient, string) (*SessionEntity, error)) {
	w.sessionHandler = handler
}

func (w *WebsocketServer) Authorization(c *WebsocketClient, msg *WebSocketMessage) {

	if w.sessionHandler == nil {
		log(LogError, "WebsocketServer Authorization no session handler")
		c.ToResponse(code.ErrorInvalidAuthToken, ActionAuthorization)
		c.closeWithDelay("AuthorizationFailed")
		return
	}

	sess, err := w.sessionHandler(c, string(msg.Data))
	if err != nil || sess == nil {
		log(LogError, "WebsocketServer Authorization failed", zap.Error(err))
		c.ToResponse(code.ErrorInvalidUserAuthToken, ActionAuthorization)
		c.closeWithDelay("AuthorizationFailed")
		return
	}

	c.Session = sess
	w.AddUserClient(c)

	c.ToResponse(code.Success, ActionAuthorization)
	log(LogInfo, "WebsocketServer session enters",
		zap.Int64("uid", sess.UID),
		zap.String("client", sess.Client),
		zap.Int("Count", w.UserClientCount(sess.UID)))
	go c.PingLoop(w.config.PingInterval, w.config.PendingSaveWait)
}

func (w *WebsocketServer) GetClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clients[conn]
}

func (w *WebsocketServer) AddClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
}

func (w *WebsocketServer) RemoveClient(conn *gws.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.clients, conn)
}

func (w *WebsocketServer) AddUserClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.userClients[c.Session.UID] == nil {
		w.userClients[c.Session.UID] = make(ConnStorage)
	}
	w.userClients[c.Session.UID][c.conn] = c
}

func (w *WebsocketServer) RemoveUserClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.userClients[c.Session.UID], c.conn)
	if len(w.userClients[c.Session.UID]) == 0 {
		delete(w.userClients, c.Session.UID)
	}
	log(LogInfo, "WebsocketServer Client Remove", zap.Int("clientCount", len(w.clients)))
}

// userClientsSnapshot 在锁内复制同一 uid 的连接列表，供广播遍历
func (w *WebsocketServer) userClientsSnapshot(uid int64) []*WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	clients := make([]*WebsocketClient, 0, len(w.userClients[uid]))
	for _, uc := range w.userClients[uid] {
		clients = append(clients, uc)
	}
	return clients
}

// ClientCount 返回当前连接总数
func (w *WebsocketServer) ClientCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.clients)
}

// UserClientCount 返回指定 uid 的连接数
func (w *WebsocketServer) UserClientCount(uid int64) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.userClients[uid])
}

// BroadcastToUser 将结果推送给指定 uid 的全部连接，供 HTTP 侧触发事件下发
func (w *WebsocketServer) BroadcastToUser(uid int64, codeObj *code.Code, action string) {
	responseBytes, _ := sonic.Marshal(buildWSRes(codeObj))
	codeObj.Reset()
	if action != "" {
		responseBytes = []byte(fmt.Sprintf(`%s|%s`, action, string(responseBytes)))
	}

	var b = gws.NewBroadcaster(gws.OpcodeText, responseBytes)
	defer b.Close()

	for _, uc := range w.userClientsSnapshot(uid) {
		if uc.conn == nil {
			continue
		}
		_ = b.Broadcast(uc.conn)
	}
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	log(LogInfo, "WebsocketServer Client Connect", zap.Int("Count", w.ClientCount()))
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {

	c := w.GetClient(conn)

	w.RemoveClient(conn)

	if c == nil {
		return
	}

	close(c.done)
	c.cancel()
	if n := c.ClearAllPendingSaves(); n > 0 {
		log(LogWarn, "WebsocketServer pending saves dropped", zap.Int("count", n))
	}
	if c.Session != nil {
		log(LogInfo, "WebsocketServer session leaves", zap.Int64("uid", c.Session.UID))
		w.RemoveUserClient(c)
	}

	log(LogInfo, "WebsocketServer Client Leave", zap.Int("Count", w.ClientCount()))

}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}
	if message.Data.String() == "close" {
		conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	c := w.GetClient(conn)
	if c == nil {
		return
	}

	messageStr := message.Data.String()
	// 使用 strings.Index 找到分隔符的位置
	index := strings.Index(messageStr, "|")

	var msg WebSocketMessage
	if index != -1 {
		msg.Action = messageStr[:index]
		msg.Data = []byte(messageStr[index+1:])
	} else {
		log(LogError, "WebsocketServer OnMessage", zap.String("type", "Illegal message format"))
		return
	}

	if msg.Action == ActionAuthorization {
		w.Authorization(c, &msg)
		return
	}

	// 未完成 Authorization 的连接不接受业务动作
	if c.Session == nil {
		c.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	handler, exists := w.handlers[msg.Action]
	if exists {
		log(LogInfo, "WebsocketServer OnMessage", zap.String("Action", msg.Action))
		handler(c, &msg)
	} else {
		log(LogError, "WebsocketServer OnMessage", zap.String("msg", "Unknown action"), zap.String("Action", msg.Action))
	}
}
