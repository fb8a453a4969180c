package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vektalab/embedviz/internal/usecase"
	"github.com/vektalab/embedviz/pkg/e"
	"github.com/vektalab/embedviz/pkg/logger"
)

type RunHandler struct {
	runUsecase usecase.RunUC
	logger     logger.Logger
}

func NewRunHandler(runUsecase usecase.RunUC, logger logger.Logger) *RunHandler {
	return &RunHandler{runUsecase: runUsecase, logger: logger}
}

// getRunProgress
//
//	@Summary		Прогресс запуска обучения
//	@Description	Возвращает статус, текущую эпоху и среднюю потерю запуска
//	@Tags			runs
//	@Produce		json
//	@Param			id	path		int				true	"ID запуска"
//	@Success		200	{object}	usecase.RunProgress	"Прогресс запуска"
//	@Failure		400	{object}	ErrorResponse	"Некорректный ID"
//	@Failure		404	{object}	ErrorResponse	"Запуск не найден"
//	@Router			/runs/{id} [get]
func (h *RunHandler) getRunProgress(w http.ResponseWriter, r *http.Request) {
	runID, err := parseRunID(chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), chi.URLParam(r, "id"))
		WriteError(w, err)
		return
	}

	progress, err := h.runUsecase.GetRunProgress(r.Context(), runID)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, progress)
}
