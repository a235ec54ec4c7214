package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/persona-interview/backend/internal/handler/interview"
	"github.com/zhouzirui/persona-interview/backend/internal/handler/live"
	"github.com/zhouzirui/persona-interview/backend/internal/handler/stream"
	"github.com/zhouzirui/persona-interview/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/persona-interview/backend/internal/middleware"
	sessionService "github.com/zhouzirui/persona-interview/backend/internal/service/session"
	"github.com/zhouzirui/persona-interview/backend/pkg/utils"
)

// Options 路由可选配置
type Options struct {
	AllowedOrigins []string
	ClockInterval  time.Duration
}

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *sessionService.Service, counters *metrics.Metrics, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middlewarePkg.CORS(opts.AllowedOrigins))
	}

	interviewHandler := interview.New(sessions)
	clockHandler := stream.New(sessions, opts.ClockInterval)
	liveHandler := live.NewWebSocketHandler(sessions, opts.ClockInterval)

	r.Route("/api", func(api chi.Router) {
		interviewHandler.RegisterRoutes(api)
		clockHandler.RegisterRoutes(api)
		liveHandler.RegisterRoutes(api)
	})

	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, counters.Snapshot())
	})

	return r
}
