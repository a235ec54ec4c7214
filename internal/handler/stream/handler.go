package stream

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	interviewService "github.com/zhouzirui/persona-interview/backend/internal/service/interview"
	sessionService "github.com/zhouzirui/persona-interview/backend/internal/service/session"
	"github.com/zhouzirui/persona-interview/backend/pkg/utils"
)

// Handler pushes the interview countdown via Server-Sent Events.
type Handler struct {
	sessions *sessionService.Service
	interval time.Duration
}

// New creates a clock stream handler ticking every interval.
func New(sessions *sessionService.Service, interval time.Duration) *Handler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Handler{sessions: sessions, interval: interval}
}

// RegisterRoutes 注册倒计时流路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/clock", h.handleClock)
}

// ClockEvent is the payload of every clock event.
type ClockEvent struct {
	SessionID        string                 `json:"sessionId"`
	Phase            interviewService.Phase `json:"phase"`
	RemainingSeconds int64                  `json:"remainingSeconds"`
	ElapsedSeconds   int64                  `json:"elapsedSeconds"`
	Expired          bool                   `json:"expired"`
	Time             string                 `json:"time"`
}

func (h *Handler) handleClock(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.sessions.Get(sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	ctx := r.Context()
	log.Printf("[sse] opening clock stream for session=%s", sessionID)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	// 先推送一次当前状态，完成的会话立即结束。
	if done := h.push(w, flusher, session, time.Now()); done {
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing clock stream for session=%s", sessionID)
			return
		case t := <-ticker.C:
			if done := h.push(w, flusher, session, t); done {
				log.Printf("[sse] interview complete, closing clock stream for session=%s", sessionID)
				return
			}
		}
	}
}

func (h *Handler) push(w http.ResponseWriter, flusher http.Flusher, session *sessionService.Session, t time.Time) bool {
	status := session.Status()
	event := ClockEvent{
		SessionID:        status.ID,
		Phase:            status.Phase,
		RemainingSeconds: status.RemainingSeconds,
		ElapsedSeconds:   status.ElapsedSeconds,
		Expired:          status.Expired,
		Time:             t.UTC().Format(time.RFC3339),
	}

	if status.Complete {
		utils.SendSSEEvent(w, flusher, "complete", event)
		return true
	}
	utils.SendSSEEvent(w, flusher, "tick", event)
	return false
}
