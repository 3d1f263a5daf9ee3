package response

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chronicle-ai/chronicle/pkg/errors"
	"github.com/chronicle-ai/chronicle/pkg/utils"
)

const (
	RequestIDKey = "request_id"
	ResponseKey  = "response_key"
)

type EmptyStruct struct {
}

type Response struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data"`
}

type Meta struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func APIError(c *gin.Context, err error) {
	c.Abort()

	res := c.MustGet(ResponseKey).(*Response)
	var httpStatus int
	if cerrptr, ok := err.(*errors.CustomizedError); !ok {
		res.Meta.Code = http.StatusInternalServerError
		res.Meta.Message = err.Error()
		httpStatus = res.Meta.Code
	} else {
		res.Meta.Code = cerrptr.GetCode()
		res.Meta.Message = cerrptr.Message()
		httpStatus = cerrptr.GetCode()
	}

	c.JSON(httpStatus, res)
	printErrorLog(c, res, err)
}

func printErrorLog(c *gin.Context, res *Response, err error) {
	slog.Error("response error", slog.Any("fields", map[string]any{
		"request_uri": c.Request.URL.Path,
		"end_time":    time.Now().Unix(),
		"code":        res.Meta.Code,
		"error":       err.Error(),
	}))
}

func printSuccessLog(c *gin.Context, res *Response) {
	logFields := map[string]any{
		"request_uri": c.Request.URL.Path,
		"end_time":    time.Now().Unix(),
	}

	if c.Request.Method == http.MethodPost {
		_ = c.Request.ParseForm()
		logFields["params"] = c.Request.Form.Encode()
	} else {
		logFields["params"] = c.Request.URL.Query().Encode()
	}

	slog.Info("request success", slog.Any("fields", logFields))
}

// APISuccessWithCode writes a success payload under a non-200 status,
// for outcomes like duplicate resources that still carry data.
func APISuccessWithCode(c *gin.Context, httpStatus int, response interface{}) {
	c.Abort()
	res := c.MustGet(ResponseKey).(*Response)
	res.Meta.Code = httpStatus
	if response != nil {
		res.Data = response
	}
	c.JSON(httpStatus, res)
	printSuccessLog(c, res)
}

func APISuccess(c *gin.Context, response interface{}) {
	c.Abort()
	res := c.MustGet(ResponseKey).(*Response)
	if response != nil {
		res.Data = response
	}
	c.JSON(http.StatusOK, res)
	printSuccessLog(c, res)
}

// NewResponse seeds each request with a response envelope carrying a
// fresh request id.
func NewResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := &Response{
			Meta: Meta{
				RequestID: utils.GenRandomID(),
			},
		}
		c.Set(ResponseKey, resp)
	}
}
