package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	v1 "github.com/chronicle-ai/chronicle/app/logic/v1"
	"github.com/chronicle-ai/chronicle/app/response"
	"github.com/chronicle-ai/chronicle/pkg/errors"
)

func (s *HttpSrv) KgRun(c *gin.Context) {
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.APIError(c, errors.New("handler.KgRun.limit", "invalid limit", err).Code(http.StatusBadRequest))
			return
		}
		limit = parsed
	}

	report, err := v1.NewIngestionLogic(c.Request.Context(), s.Core).RunOnce(limit)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, report)
}

func (s *HttpSrv) KgStatus(c *gin.Context) {
	report, err := v1.NewIngestionLogic(c.Request.Context(), s.Core).Status()
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, report)
}

func (s *HttpSrv) KgRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	runs, err := v1.NewIngestionLogic(c.Request.Context(), s.Core).RecentRuns(limit)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, runs)
}

// KgReset returns one document to the claimable state. Operator-only:
// nothing in the pipeline re-queues FAILED documents automatically.
func (s *HttpSrv) KgReset(c *gin.Context) {
	documentID := c.Param("document_id")
	if documentID == "" {
		response.APIError(c, errors.New("handler.KgReset.param", "missing document id", nil).Code(http.StatusBadRequest))
		return
	}

	if err := s.Core.Store().DocumentStore().ResetKgStatus(c.Request.Context(), documentID); err != nil {
		response.APIError(c, errors.New("handler.KgReset.ResetKgStatus", "internal error", err))
		return
	}

	response.APISuccess(c, response.EmptyStruct{})
}
