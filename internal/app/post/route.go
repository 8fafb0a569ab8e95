package post

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg gin.IRoutes, handler Handler) {
	rg.GET("/boards/:path/threads", handler.GetThreadIndex)
	rg.POST("/boards/:path/threads", handler.CreateThread)
	rg.GET("/boards/:path/threads/:id", handler.GetThread)
	rg.POST("/boards/:path/threads/:id/replies", handler.CreateReply)
	rg.POST("/boards/:path/posts/delete", handler.Delete)
}
