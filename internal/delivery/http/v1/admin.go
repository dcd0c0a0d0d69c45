package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/WAzaizeh/ChainFlow/internal/services"
)

type taskOutcomeResponse struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error,omitempty"`
}

type cycleReportResponse struct {
	RunID     string                `json:"run_id"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
	Outcomes  []taskOutcomeResponse `json:"outcomes"`
}

func newCycleReportResponse(report *services.CycleReport) cycleReportResponse {
	resp := cycleReportResponse{
		RunID:     report.RunID,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Outcomes:  make([]taskOutcomeResponse, 0, len(report.Outcomes)),
	}
	for _, outcome := range report.Outcomes {
		o := taskOutcomeResponse{TaskID: outcome.TaskID}
		if outcome.Err != nil {
			o.Error = outcome.Err.Error()
		}
		resp.Outcomes = append(resp.Outcomes, o)
	}
	return resp
}

// HandleArchiveTasks snapshots every task. Partial failure still
// returns the report; the failed items are in it.
func (h *handlerImpl) HandleArchiveTasks(c *gin.Context) {
	report, err := h.archive.Archive(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("archive run failed")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, newCycleReportResponse(report))
}

// HandleResetTasks returns every task to the not-done baseline.
func (h *handlerImpl) HandleResetTasks(c *gin.Context) {
	report, err := h.archive.Reset(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("reset run failed")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, newCycleReportResponse(report))
}
