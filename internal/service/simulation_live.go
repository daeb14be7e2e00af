package service

import (
	"context"
	"encoding/json"
	"net/http"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/util"
	"satistrain_backend/pkg/logger"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2048
)

// WSMessage 实时通道的消息帧
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	WSTypeReady   = "ready"
	WSTypeTurn    = "turn"
	WSTypeError   = "error"
	WSTypeExpired = "expired"
)

// NewUpgrader 只接受白名单中的 Origin；没有 Origin 头的非浏览器客户端放行
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originSet[origin]
		},
	}
}

// liveClient 一个模拟会话的 WebSocket 连接
type liveClient struct {
	svc        *SimulationService
	conn       *websocket.Conn
	send       chan []byte
	writerDone chan struct{}
	userID     uint
	sessionID  uint
	deadline   time.Time
	limiter    *rate.Limiter
}

// PrepareLive 升级前校验会话：属于该用户、仍在进行、时间未用完
func (s *SimulationService) PrepareLive(ctx context.Context, userID, sessionID uint) (*model.SimulationSession, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SimulationActive {
		return nil, util.NewValidationError("simulation is %s", session.Status)
	}
	if !time.Now().Before(s.SessionDeadline(session)) {
		return nil, util.NewValidationError("simulation time budget exhausted")
	}
	return session, nil
}

// ServeLive 接管已升级的连接，阻塞直到连接结束
func (s *SimulationService) ServeLive(ctx context.Context, conn *websocket.Conn, session *model.SimulationSession) {
	c := &liveClient{
		svc:        s,
		conn:       conn,
		send:       make(chan []byte, 16),
		writerDone: make(chan struct{}),
		userID:     session.UserID,
		sessionID:  session.ID,
		deadline:   s.SessionDeadline(session),
		limiter:    rate.NewLimiter(rate.Limit(2), 5),
	}

	logger.Log.Info("Live simulation connected",
		zap.Uint("sessionId", session.ID),
		zap.Time("deadline", c.deadline),
	)

	quit := make(chan struct{})
	go c.writePump(quit)
	c.enqueue(WSMessage{Type: WSTypeReady, Data: map[string]interface{}{
		"sessionId": session.ID,
		"scenario":  session.Scenario,
		"deadline":  c.deadline,
	}})
	c.readPump(ctx)
	close(quit)
	<-c.writerDone

	logger.Log.Info("Live simulation disconnected", zap.Uint("sessionId", session.ID))
}

func (c *liveClient) enqueue(msg WSMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	select {
	case c.send <- data:
		return true
	case <-c.writerDone:
		return false
	}
}

func (c *liveClient) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Log.Warn("WebSocket unexpected close", zap.Error(err), zap.Uint("sessionId", c.sessionID))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		if !c.limiter.Allow() {
			if !c.enqueue(errorFrame(util.NewError(util.KindRateLimit, "too many messages"))) {
				return
			}
			continue
		}

		turn, err := c.svc.SendMessage(ctx, c.userID, c.sessionID, string(message))
		var frame WSMessage
		if err != nil {
			frame = errorFrame(err)
		} else {
			frame = WSMessage{Type: WSTypeTurn, Data: turn}
		}
		if !c.enqueue(frame) {
			return
		}
	}
}

// writePump 负责所有写操作；时间用完时发送 expired 帧并关闭连接
func (c *liveClient) writePump(quit <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	budget := time.NewTimer(time.Until(c.deadline))
	defer func() {
		ticker.Stop()
		budget.Stop()
		c.conn.Close()
		close(c.writerDone)
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-budget.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, _ := json.Marshal(WSMessage{Type: WSTypeExpired, Data: map[string]interface{}{"sessionId": c.sessionID}})
			c.conn.WriteMessage(websocket.TextMessage, data)
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session time budget exhausted"))
			return
		case <-quit:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func errorFrame(err error) WSMessage {
	return WSMessage{Type: WSTypeError, Data: map[string]interface{}{
		"kind":    util.KindOf(err),
		"message": util.PublicMessage(err),
	}}
}
