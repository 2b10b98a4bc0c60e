package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts every endpoint on router.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/proxy-media", h.ProxyMedia)
		api.GET("/voices", h.ListVoices)
		api.GET("/assets/:id", h.GetAsset)

		capabilities := api.Group("")
		capabilities.Use(h.requireGen)
		{
			capabilities.POST("/chat", h.Chat)
			capabilities.POST("/generate-image", h.GenerateImage)
			capabilities.POST("/generate-video", h.CreateVideoTask)
			capabilities.GET("/generate-video", h.GetVideoTask)
			capabilities.POST("/tts", h.TextToSpeech)
		}

		projectsRoutes := api.Group("/projects")
		{
			projectsRoutes.POST("", h.CreateProject)                                // POST /api/projects
			projectsRoutes.GET("/:id", h.GetProject)                                // GET /api/projects/:id
			projectsRoutes.DELETE("/:id", h.DeleteProject)                          // close a live project
			projectsRoutes.GET("/:id/events", h.ProjectEvents)                      // SSE feed
			projectsRoutes.GET("/:id/ws", h.ProjectSocket)                          // websocket feed
			projectsRoutes.PATCH("/:id/scenes/:sceneId", h.UpdateScene)             // user edit
			projectsRoutes.POST("/:id/scenes/:sceneId/audio", h.GenerateSceneAudio) // one narration
			projectsRoutes.POST("/:id/clips/:clipId/resize", h.ResizeClip)          // edge drag
			projectsRoutes.POST("/:id/regenerate", h.Regenerate)                    // redo one asset
			projectsRoutes.POST("/:id/videos", h.GenerateVideos)                    // video wave
			projectsRoutes.POST("/:id/audio", h.GenerateAllAudio)                   // missing narration
			projectsRoutes.POST("/:id/refine", h.Refine)                            // chat edit
			projectsRoutes.POST("/:id/export", h.ExportProject)                     // file download
		}

		historyRoutes := api.Group("/history")
		{
			historyRoutes.GET("", h.ListHistory)
			historyRoutes.GET("/:id", h.GetHistory)
			historyRoutes.DELETE("/:id", h.DeleteHistory)
			historyRoutes.POST("/:id/restore", h.RestoreHistory)
		}
	}
}
