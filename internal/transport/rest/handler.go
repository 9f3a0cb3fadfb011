package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"collector-engine/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// EngineService is what the HTTP layer needs from the rule engine: trigger a
// background run and read back run statuses.
type EngineService interface {
	StartRun(ctx context.Context, userID int64) (string, error)
	GetRuns(ctx context.Context) ([]service.RunStatus, error)
	GetRun(ctx context.Context, runID string) (*service.RunStatus, error)
}

type Handler struct {
	engine EngineService
}

func NewHandler(engine EngineService) *Handler {
	return &Handler{
		engine: engine,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "collector engine")
	})

	r.Route("/engine", func(r chi.Router) {
		r.Post("/run", h.triggerRun)
		r.Get("/runs", h.listRuns)
		r.Get("/runs/{run_id}", h.getRun)
	})

	return r
}
