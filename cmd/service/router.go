package service

import (
	"github.com/gin-gonic/gin"

	"github.com/chronicle-ai/chronicle/app/core"
	"github.com/chronicle-ai/chronicle/app/response"
	"github.com/chronicle-ai/chronicle/cmd/service/handler"
	"github.com/chronicle-ai/chronicle/cmd/service/middleware"
	"github.com/chronicle-ai/chronicle/pkg/metrics"
)

func serve(core *core.Core) {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	core.HttpEngine().Run(core.Cfg().Addr)
}

func setupHttpRouter(s *handler.HttpSrv) {
	s.Engine.Use(gin.Recovery(), middleware.Cors(), response.NewResponse(), middleware.Timing(s.Core))

	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	api := s.Engine.Group("/api/v1")
	api.Use(middleware.ApiKey(s.Core), middleware.IPRateLimit(s.Core))
	{
		api.POST("/upload", s.Upload)
		api.POST("/query", s.Query)
		api.POST("/query/stream", s.QueryStream)
	}

	admin := s.Engine.Group("/admin/ingest")
	admin.Use(middleware.ApiKey(s.Core))
	{
		admin.POST("/kg", s.KgRun)
		admin.GET("/kg/status", s.KgStatus)
		admin.GET("/kg/runs", s.KgRuns)
		admin.POST("/kg/reset/:document_id", s.KgReset)
	}
}
