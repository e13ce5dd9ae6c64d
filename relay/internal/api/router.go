package api

import (
	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/auth"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func SetupRouter(handler *Handler, admin auth.Credentials) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger())

	router.HEAD("/", handler.Head)
	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/display", handler.Display)
	router.GET("/stats", auth.Middleware(admin), handler.Stats)

	return router
}
