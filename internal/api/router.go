package api

import "github.com/gin-gonic/gin"

// SetupRouter wires every endpoint onto a gin engine.
func SetupRouter(h *Handler, jwtSecret string) *gin.Engine {
	r := gin.Default()

	r.GET("/", h.Health)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(OwnerMiddleware(jwtSecret))
	{
		api.POST("/upload", h.Upload)
		api.POST("/upload/multiple", h.UploadMultiple)

		api.GET("/files", h.ListFiles)
		api.GET("/files/:file_id", h.FileInfo)
		api.POST("/files/batch", h.BatchFileInfo)

		api.POST("/chat", h.Chat)
		api.POST("/chat/file/:file_id", h.ChatWithFile)
		api.POST("/chat/files", h.ChatWithFiles)

		api.POST("/quiz/generate", h.GenerateQuiz)

		api.GET("/stats", h.Stats)
		api.POST("/clear", h.Clear)

		folders := api.Group("/folders")
		{
			folders.POST("", h.CreateFolder)
			folders.GET("", h.ListFolders)
			folders.DELETE("/:folder_id", h.DeleteFolder)
			folders.POST("/:folder_id/files", h.AddFileToFolder)
			folders.GET("/:folder_id/files", h.ListFolderFiles)
		}
	}

	r.GET("/ws/audio", OwnerMiddleware(jwtSecret), h.AudioSocket)

	return r
}
