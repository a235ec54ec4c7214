package live

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	interviewService "github.com/zhouzirui/persona-interview/backend/internal/service/interview"
	sessionService "github.com/zhouzirui/persona-interview/backend/internal/service/session"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler 访谈实时通道
type WebSocketHandler struct {
	sessions     *sessionService.Service
	tickInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(sessions *sessionService.Service, tickInterval time.Duration) *WebSocketHandler {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &WebSocketHandler{
		sessions:     sessions,
		tickInterval: tickInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/ws", h.handleWebSocket)
}

// 入站消息类型
const (
	TypeStart  = "start"
	TypeSubmit = "submit"
	TypeExport = "export"
	TypeStatus = "status"
)

// 出站消息类型
const (
	TypeState = "state"
	TypeTick  = "tick"
	TypeError = "error"
)

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ExportPayload is sent in reply to an export request.
type ExportPayload struct {
	FileName string                        `json:"fileName"`
	Record   interviewService.ExportRecord `json:"record"`
}

// TickPayload carries the countdown while the interview runs.
type TickPayload struct {
	RemainingSeconds int64 `json:"remainingSeconds"`
	Expired          bool  `json:"expired"`
}

// connection serializes writes; gorilla allows one concurrent writer.
type connection struct {
	ws        *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

func (c *connection) send(msgType string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (c *connection) sendError(message string) {
	if err := c.send(TypeError, map[string]string{"message": message}); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.sessions.Get(sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)
	conn := &connection{ws: ws, sessionID: sessionID}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)
	go h.tickLoop(ctx, conn, session)

	h.sendState(conn, session.Status())

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(readTimeout))

		h.handleMessage(ctx, conn, session, msg)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *connection, session *sessionService.Session, msg inboundMessage) {
	switch msg.Type {
	case TypeStart:
		status, err := session.Begin(ctx)
		if err != nil {
			conn.sendError(describe(err))
			return
		}
		h.sendState(conn, status)
	case TypeSubmit:
		status, _, err := session.Submit(ctx, msg.Text)
		if err != nil {
			conn.sendError(describe(err))
			return
		}
		h.sendState(conn, status)
	case TypeExport:
		record, err := session.Export()
		if err != nil {
			conn.sendError(describe(err))
			return
		}
		if err := conn.send(TypeExport, ExportPayload{FileName: record.FileName(), Record: record}); err != nil {
			log.Printf("[websocket] write export failed: %v", err)
		}
	case TypeStatus:
		h.sendState(conn, session.Status())
	default:
		conn.sendError("unknown message type: " + msg.Type)
	}
}

func (h *WebSocketHandler) sendState(conn *connection, status sessionService.Status) {
	if err := conn.send(TypeState, status); err != nil {
		log.Printf("[websocket] write state failed: %v", err)
	}
}

// tickLoop 在访谈进行中定期推送剩余时间
func (h *WebSocketHandler) tickLoop(ctx context.Context, conn *connection, session *sessionService.Session) {
	ticker := time.NewTicker(h.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if session.Phase() != interviewService.PhaseInProgress {
				continue
			}
			status := session.Status()
			if err := conn.send(TypeTick, TickPayload{
				RemainingSeconds: status.RemainingSeconds,
				Expired:          status.Expired,
			}); err != nil {
				return
			}
		}
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}

func describe(err error) string {
	if !errors.Is(err, interviewService.ErrInvalidStateTransition) {
		log.Printf("[websocket] request failed: %v", err)
	}
	return err.Error()
}
