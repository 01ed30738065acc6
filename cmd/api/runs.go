package main

import (
	"errors"
	"net/http"

	"github.com/farxc/ecommerce_medallion/internal/pipeline"
	"github.com/farxc/ecommerce_medallion/internal/response"
	"github.com/farxc/ecommerce_medallion/internal/store"
)

const defaultHistoryLimit = 20

// @Summary		Run history
// @Description	returns the latest pipeline runs, newest first
// @Tags			Runs
// @Produce		json
// @Param			limit	query		int	false	"Maximum number of runs (default 20)"
// @Success		200		{object}	response.APIResponse[[]store.PipelineRun]
// @Failure		400		{object}	response.ErrorResponse
// @Failure		503		{object}	response.ErrorResponse
// @Router			/runs/history [get]
func (app *application) handleGetRunHistory(w http.ResponseWriter, r *http.Request) {
	if app.runs == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultHistoryLimit)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := app.runs.GetLatest(r.Context(), limit)
	if err != nil {
		app.appLogger.Error("API-Runs", "Failed to fetch run history: err=%v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to fetch run history")
		return
	}
	if runs == nil {
		runs = []store.PipelineRun{}
	}

	writeJSON(w, http.StatusOK, response.APIResponse[[]store.PipelineRun]{Success: true, Data: runs})
}

// @Summary		Trigger a pipeline run
// @Description	starts a full bronze, silver and gold run in the background
// @Tags			Runs
// @Produce		json
// @Success		202	{object}	response.APIResponse[response.RunAccepted]
// @Failure		409	{object}	response.ErrorResponse
// @Router			/runs [post]
func (app *application) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	runID, err := app.orchestrator.Start(app.baseCtx, store.TriggerTypeAPI)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			writeJSONError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	app.appLogger.Info("API-Runs", "Pipeline run triggered: run_id=%s", runID)
	writeJSON(w, http.StatusAccepted, response.APIResponse[response.RunAccepted]{
		Success: true,
		Message: "pipeline run started",
		Data:    response.RunAccepted{RunID: runID},
	})
}
