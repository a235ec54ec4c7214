package interview

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	interviewService "github.com/zhouzirui/persona-interview/backend/internal/service/interview"
	sessionService "github.com/zhouzirui/persona-interview/backend/internal/service/session"
	"github.com/zhouzirui/persona-interview/backend/pkg/utils"
)

// Handler 访谈会话的 REST 处理器
type Handler struct {
	sessions *sessionService.Service
}

// New 创建访谈处理器
func New(sessions *sessionService.Service) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes 注册访谈相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreate)
	r.Get("/sessions", h.handleList)
	r.Get("/sessions/{sessionID}", h.handleStatus)
	r.Delete("/sessions/{sessionID}", h.handleDelete)
	r.Post("/sessions/{sessionID}/start", h.handleStart)
	r.Post("/sessions/{sessionID}/messages", h.handleSubmit)
	r.Get("/sessions/{sessionID}/progress", h.handleProgress)
	r.Get("/sessions/{sessionID}/export", h.handleExport)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Create(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session.Status())
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"sessions": h.sessions.List()})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Status())
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "sessionID")); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	status, err := session.Begin(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, status)
}

// handleSubmit 提交一条回答，空文本不改变会话
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, _, err := session.Submit(r.Context(), payload.Text)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, status)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"sections": session.Progress()})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	record, err := session.Export()
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondAttachment(w, record.FileName(), record)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*sessionService.Session, bool) {
	session, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondErr(w, err)
		return nil, false
	}
	return session, true
}

// StatusCode maps service errors onto HTTP statuses.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, sessionService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, interviewService.ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, interviewService.ErrCollaboratorContract):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondErr(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Printf("[interview] request failed: %v", err)
	}
	utils.RespondError(w, status, err.Error())
}
