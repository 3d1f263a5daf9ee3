package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/chronicle-ai/chronicle/app/logic/v1"
	"github.com/chronicle-ai/chronicle/app/response"
	"github.com/chronicle-ai/chronicle/pkg/errors"
)

func (s *HttpSrv) Query(c *gin.Context) {
	var req v1.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.APIError(c, errors.New("handler.Query.ShouldBindJSON", "invalid request body", err).Code(http.StatusBadRequest))
		return
	}

	result, err := v1.NewQueryLogic(c.Request.Context(), s.Core).Answer(req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, result)
}

// QueryStream answers over server-sent events, one data frame per
// model token.
func (s *HttpSrv) QueryStream(c *gin.Context) {
	var req v1.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.APIError(c, errors.New("handler.QueryStream.ShouldBindJSON", "invalid request body", err).Code(http.StatusBadRequest))
		return
	}

	stream, err := v1.NewQueryLogic(c.Request.Context(), s.Core).AnswerStream(req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		fragment, ok := <-stream
		if !ok {
			return false
		}
		c.SSEvent("message", fragment)
		return true
	})
}
