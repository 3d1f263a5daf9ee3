package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/chronicle-ai/chronicle/app/core"
)

type HttpSrv struct {
	Core   *core.Core
	Engine *gin.Engine
}
