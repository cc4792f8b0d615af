package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/penflow/penflow-sync-service/global"
	"github.com/penflow/penflow-sync-service/pkg/code"
	"github.com/penflow/penflow-sync-service/pkg/metrics"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type LogType string

const (
	WebSocketServerPingInterval         = 25
	WebSocketServerPingWait             = 40
	LogInfo                     LogType = "info"
	LogError                    LogType = "error"
	LogWarn                     LogType = "warn"
)

func log(t LogType, msg string, fields ...zap.Field) {
	switch t {
	case LogError:
		global.Logger.Error(msg, fields...)
	case LogWarn:
		global.Logger.Warn(msg, fields...)
	case LogInfo:
		global.Logger.Info(msg, fields...)
	}
}

// WebSocketMessage is one framed message: "Type|payload".
type WebSocketMessage struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// SessionEntity identifies the authenticated owner of a connection.
type SessionEntity struct {
	UID   int64
	Name  string
	Token string
}

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

// WebsocketClient is one live connection with its auth state and
// subscription set.
type WebsocketClient struct {
	conn    *gws.Conn
	done    chan struct{}
	server  *WebsocketServer
	subbed  map[string]struct{}
	Ctx     *gin.Context
	Session *SessionEntity
	SF      *singleflight.Group
}

// BindAndValid decodes and validates a websocket message payload.
func (c *WebsocketClient) BindAndValid(data []byte, obj any) (bool, ValidErrors) {
	var trans ut.Translator
	if v := c.Ctx.Value("trans"); v != nil {
		trans, _ = v.(ut.Translator)
	}
	return UnmarshalAndValid(trans, data, obj)
}

// PingLoop keeps the connection alive until the client leaves.
func (c *WebsocketClient) PingLoop(pingInterval time.Duration) {
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
		}
	}
}

// ToResponse sends a result code to this connection only.
func (c *WebsocketClient) ToResponse(codeObj *code.Code, action ...string) {
	var actionType string
	if len(action) > 0 {
		actionType = action[0]
	}

	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.Msg(),
		Data:    codeObj.Data(),
	}
	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}

	c.send(actionType, content)
}

// BroadcastChangeset sends a result code to every subscriber of a changeset.
// The originating connection is skipped when excludeSelf is set, which is how
// push acknowledgement and change fan-out stay distinct.
func (c *WebsocketClient) BroadcastChangeset(changesetID string, codeObj *code.Code, excludeSelf bool, action ...string) {
	var actionType string
	if len(action) > 0 {
		actionType = action[0]
	}

	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.Msg(),
		Data:    codeObj.Data(),
	}

	responseBytes, _ := json.Marshal(content)
	if actionType != "" {
		responseBytes = []byte(fmt.Sprintf(`%s|%s`, actionType, string(responseBytes)))
	}

	b := gws.NewBroadcaster(gws.OpcodeText, responseBytes)
	defer b.Close()

	for _, sub := range c.server.ChangesetClients(changesetID) {
		if sub.conn == nil {
			continue
		}
		if excludeSelf && sub.conn == c.conn {
			continue
		}
		_ = b.Broadcast(sub.conn)
	}
}

func (c *WebsocketClient) send(actionType string, content any) {
	responseBytes, _ := json.Marshal(content)
	if actionType != "" {
		responseBytes = []byte(fmt.Sprintf(`%s|%s`, actionType, string(responseBytes)))
	}
	c.conn.WriteMessage(gws.OpcodeText, responseBytes)
}

// ------------------------------------> WebsocketServer

type ConnStorage = map[*gws.Conn]*WebsocketClient

// WebsocketServer routes framed messages to action handlers and tracks which
// connections watch which changesets.
type WebsocketServer struct {
	handlers             map[string]func(*WebsocketClient, *WebSocketMessage)
	sessionVerifyHandler func(token string) (*SessionEntity, error)
	clients              ConnStorage
	changesetClients     map[string]ConnStorage
	mu                   sync.Mutex
	up                   *gws.Upgrader
	config               *WebsocketServerConfig
}

func NewWebsocketServer(c WebsocketServerConfig) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	wss := WebsocketServer{
		handlers:         make(map[string]func(*WebsocketClient, *WebSocketMessage)),
		clients:          make(ConnStorage),
		changesetClients: make(map[string]ConnStorage),
		config:           &c,
	}
	return &wss
}

func (w *WebsocketServer) Upgrade() {
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
}

func (w *WebsocketServer) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		w.Upgrade()
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			log(LogError, "WebsocketServer Start err", zap.Error(err))
			return
		}
		client := &WebsocketClient{
			conn:   socket,
			done:   make(chan struct{}),
			server: w,
			subbed: make(map[string]struct{}),
			Ctx:    c,
			SF:     new(singleflight.Group),
		}
		w.AddClient(client)
		log(LogInfo, "WebsocketServer Start", zap.String("type", "ReadLoop"))
		go socket.ReadLoop()
	}
}

// Use registers the handler for one action type.
func (w *WebsocketServer) Use(action string, handler func(*WebsocketClient, *WebSocketMessage)) {
	w.handlers[action] = handler
}

// SessionVerifyUse installs the session token lookup used by Authorization.
func (w *WebsocketServer) SessionVerifyUse(handler func(token string) (*SessionEntity, error)) {
	w.sessionVerifyHandler = handler
}

// Authorization resolves the opaque session token carried in the message
// payload. Failures answer with an error code and then close; an
// unauthenticated connection never reaches the action handlers.
func (w *WebsocketServer) Authorization(c *WebsocketClient, msg *WebSocketMessage) {
	session, err := w.sessionVerifyHandler(string(msg.Data))
	if err != nil || session == nil {
		log(LogError, "WebsocketServer Authorization FAILED", zap.Error(err))
		c.ToResponse(code.ErrorInvalidSessionToken, "Authorization")
		time.Sleep(2 * time.Second)
		c.conn.WriteClose(1000, []byte("AuthorizationFailed"))
		return
	}

	c.Session = session
	c.ToResponse(code.Success, "Authorization")
	log(LogInfo, "WebsocketServer Session Enters",
		zap.Int64("uid", session.UID),
		zap.String("name", session.Name))
	go c.PingLoop(w.config.PingInterval)
}

// Subscribe adds the connection to a changeset's broadcast group.
func (w *WebsocketServer) Subscribe(c *WebsocketClient, changesetID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.changesetClients[changesetID] == nil {
		w.changesetClients[changesetID] = make(ConnStorage)
	}
	w.changesetClients[changesetID][c.conn] = c
	c.subbed[changesetID] = struct{}{}
}

// Unsubscribe removes the connection from a changeset's broadcast group.
func (w *WebsocketServer) Unsubscribe(c *WebsocketClient, changesetID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.changesetClients[changesetID], c.conn)
	if len(w.changesetClients[changesetID]) == 0 {
		delete(w.changesetClients, changesetID)
	}
	delete(c.subbed, changesetID)
}

// ChangesetClients snapshots the broadcast group of a changeset.
func (w *WebsocketServer) ChangesetClients(changesetID string) []*WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	group := w.changesetClients[changesetID]
	out := make([]*WebsocketClient, 0, len(group))
	for _, client := range group {
		out = append(out, client)
	}
	return out
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
	metrics.ActiveConnections.Inc()
}

func (w *WebsocketServer) RemoveClient(conn *gws.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.clients[conn]
	delete(w.clients, conn)
	if c == nil {
		return
	}
	metrics.ActiveConnections.Dec()
	for changesetID := range c.subbed {
		delete(w.changesetClients[changesetID], conn)
		if len(w.changesetClients[changesetID]) == 0 {
			delete(w.changesetClients, changesetID)
		}
	}
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	log(LogInfo, "WebsocketServer Client Connect", zap.Int("Count", len(w.clients)))
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait * time.Second))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {
	c := w.GetClient(conn)
	w.RemoveClient(conn)

	if c != nil && c.Session != nil {
		c.done <- struct{}{}
		log(LogInfo, "WebsocketServer Session Leave", zap.Int64("uid", c.Session.UID))
	}

	log(LogInfo, "WebsocketServer Client Leave", zap.Int("Count", len(w.clients)))
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

	c := w.GetClient(conn)
	if c == nil {
		return
	}

	messageStr := message.Data.String()
	index := strings.Index(messageStr, "|")

	var msg WebSocketMessage
	if index != -1 {
		msg.Type = messageStr[:index]
		msg.Data = []byte(messageStr[index+1:])
	} else {
		log(LogError, "WebsocketServer OnMessage", zap.String("type", "Illegal message type"))
		return
	}

	if msg.Type == "Authorization" {
		w.Authorization(c, &msg)
		return
	}

	if c.Session == nil {
		c.ToResponse(code.ErrorNotSessionToken, msg.Type)
		return
	}

	handler, exists := w.handlers[msg.Type]
	if exists {
		log(LogInfo, "WebsocketServer OnMessage", zap.String("Type", msg.Type))
		handler(c, &msg)
	} else {
		log(LogError, "WebsocketServer OnMessage", zap.String("msg", "Unknown message type"), zap.String("Type", msg.Type))
	}
}
