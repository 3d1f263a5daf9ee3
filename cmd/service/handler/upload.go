package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/chronicle-ai/chronicle/app/logic/v1"
	"github.com/chronicle-ai/chronicle/app/response"
	"github.com/chronicle-ai/chronicle/pkg/errors"
)

// maxUploadBytes bounds a single upload body.
const maxUploadBytes = 20 << 20

func (s *HttpSrv) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.APIError(c, errors.New("handler.Upload.FormFile", "missing file field", err).Code(http.StatusBadRequest))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.APIError(c, errors.New("handler.Upload.size", "file too large", nil).Code(http.StatusRequestEntityTooLarge))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.APIError(c, errors.New("handler.Upload.Open", "internal error", err))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		response.APIError(c, errors.New("handler.Upload.ReadAll", "internal error", err))
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = fileHeader.Filename
	}

	result, err := v1.NewUploadLogic(c.Request.Context(), s.Core).Ingest(title, fileHeader.Filename, raw)
	if err != nil {
		response.APIError(c, err)
		return
	}

	if result.Duplicate {
		response.APISuccessWithCode(c, http.StatusConflict, result)
		return
	}
	response.APISuccess(c, result)
}
