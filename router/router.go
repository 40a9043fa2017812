package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fipli/api"
	"fipli/config"
	"fipli/middleware"
	"fipli/service"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc *service.Service, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}
	// 设置运行模式
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))

	// CORS 中间件
	r.Use(CORSMiddleware())

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(cfg.RateLimit.MutationsPerMinute, time.Minute))
	api.NewHandler(svc, log).Register(v1)

	// 健康检查，同时确认数据库可用
	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := svc.Store().DB(c.Request.Context()).DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"driver": svc.Store().Driver(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"driver": svc.Store().Driver(),
		})
	})

	return r
}

// CORSMiddleware CORS 中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With, "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader+", Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
