package api

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/service"
	"alcyxob/sports-academy/internal/state"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies is everything the HTTP layer needs.
type Dependencies struct {
	JWTSecret string
	Store     *state.Store
	Sync      SyncController
	Gatherer  prometheus.Gatherer

	Auth      service.AuthService
	Roster    service.RosterService
	Media     service.MediaService
	Notes     service.NoteService
	Finance   service.FinanceService
	Assistant service.AssistantService
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Auth)
	studentHandler := NewStudentHandler(deps.Roster, deps.Store)
	academyHandler := NewAcademyHandler(deps.Media, deps.Notes, deps.Finance)
	syncHandler := NewSyncHandler(deps.Sync)
	assistantHandler := NewAssistantHandler(deps.Assistant)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/parent/login", authHandler.ParentLogin)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(deps.JWTSecret))

	parent := protected.Group("/parent")
	parent.Use(RoleMiddleware(domain.RoleParent))
	{
		parent.GET("/student", studentHandler.ParentStudent)
	}

	admin := protected.Group("")
	admin.Use(RoleMiddleware(domain.RoleAdmin))
	{
		studentHandler.Register(admin.Group("/" + domain.CollectionStudents))
		NewCollectionHandler(deps.Store.Trainers()).Register(admin.Group("/" + domain.CollectionTrainers))
		NewCollectionHandler(deps.Store.Sessions()).Register(admin.Group("/" + domain.CollectionSessions))
		NewCollectionHandler(deps.Store.Drills()).Register(admin.Group("/" + domain.CollectionDrills))

		finance := admin.Group("/" + domain.CollectionFinance)
		finance.GET("/summary", academyHandler.FinanceSummary)
		NewCollectionHandler(deps.Store.Finance()).Register(finance)

		media := admin.Group("/" + domain.CollectionMedia)
		media.POST("/uploads", academyHandler.RequestUploadURL)
		media.POST("/:id/publish", academyHandler.PublishMedia)
		NewCollectionHandler(deps.Store.Media()).
			WithCreate(deps.Media.CreatePost).
			WithDelete(deps.Media.DeletePost).
			Register(media)

		notes := admin.Group("/" + domain.CollectionNotes)
		notes.POST("/:id/read", academyHandler.MarkNoteRead)
		NewCollectionHandler(deps.Store.Notes()).
			WithCreate(deps.Notes.CreateNote).
			Register(notes)

		syncGroup := admin.Group("/sync")
		syncGroup.GET("/status", syncHandler.Status)
		syncGroup.POST("/flush", syncHandler.Flush)

		assistantGroup := admin.Group("/assistant")
		assistantGroup.GET("/context", assistantHandler.Context)
		assistantGroup.POST("/chat", assistantHandler.Chat)
	}
}
