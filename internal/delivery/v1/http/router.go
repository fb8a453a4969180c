package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	_ "github.com/vektalab/embedviz/docs" // Импорт сгенерированных файлов
	"github.com/vektalab/embedviz/internal/usecase"
	"github.com/vektalab/embedviz/pkg/logger"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(runUC usecase.RunUC) {
	r.router.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		runHandler := NewRunHandler(runUC, r.logger)
		registerRunRoutes(v1, runHandler)
	})
}

func registerRunRoutes(router chi.Router, runHandler *RunHandler) {
	router.Route("/runs", func(rn chi.Router) {
		rn.Get("/{id}", runHandler.getRunProgress)
	})
}
