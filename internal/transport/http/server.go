package http

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsvc "studynotes/internal/app"
	"studynotes/internal/bootstrap"
	"studynotes/internal/transport/http/handler"
	"studynotes/internal/transport/http/middleware"
)

// multipartOverhead leaves room for form fields and boundaries around an upload.
const multipartOverhead = 1 << 20

type Deps struct {
	AppName     string
	Env         string
	GinMode     string
	CORSOrigins []string
	MaxUpload   int64
	StartedAt   time.Time
	Logger      *zap.Logger

	Gateway   *appsvc.Gateway
	Ingest    *appsvc.IngestService
	Notes     *appsvc.NoteService
	Materials *appsvc.MaterialService
	Profiles  *appsvc.ProfileService
	Checks    []handler.HealthCheck
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	return NewEngine(Deps{
		AppName:     app.Config.App.Name,
		Env:         app.Config.App.Env,
		GinMode:     app.Config.App.GinMode,
		CORSOrigins: app.Config.App.CORSOrigins,
		MaxUpload:   app.Config.Upload.MaxBytes,
		StartedAt:   app.StartedAt,
		Logger:      app.Logger,
		Gateway:     app.Gateway,
		Ingest:      app.Ingest,
		Notes:       app.Notes,
		Materials:   app.Materials,
		Profiles:    app.Profiles,
		Checks:      app.HealthChecks(),
	})
}

func NewEngine(deps Deps) *gin.Engine {
	if deps.GinMode != "" {
		gin.SetMode(deps.GinMode)
	}
	logger := deps.Logger.Named("http")

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.AccessLog(logger),
		gin.Recovery(),
		middleware.CORS(deps.CORSOrigins),
		gzip.Gzip(gzip.DefaultCompression,
			gzip.WithExcludedPaths([]string{"/api/tts", "/download/", "/uploads/"}),
			gzip.WithExcludedPathsRegexs([]string{`^/study-materials/[^/]+/file$`}),
		),
	)

	healthHandler := handler.NewHealthHandler(deps.AppName, deps.Env, deps.StartedAt, deps.Checks)
	noteHandler := handler.NewNoteHandler(deps.Notes, deps.Ingest, deps.MaxUpload, logger)
	studyHandler := handler.NewStudyHandler(deps.Gateway, logger)
	materialHandler := handler.NewMaterialHandler(deps.Materials, deps.MaxUpload, logger)
	profileHandler := handler.NewProfileHandler(deps.Profiles, deps.MaxUpload, logger)

	uploadLimit := middleware.BodyLimit(deps.MaxUpload + multipartOverhead)
	jsonLimit := middleware.BodyLimit(deps.MaxUpload)

	router.GET("/healthz", healthHandler.Check)

	notes := router.Group("/notes", jsonLimit)
	notes.GET("", noteHandler.List)
	notes.POST("", noteHandler.Create)
	notes.POST("/ingest", noteHandler.IngestText)
	notes.GET("/:id", noteHandler.Get)
	notes.PUT("/:id", noteHandler.Update)
	notes.DELETE("/:id", noteHandler.Delete)
	notes.GET("/:id/questions", noteHandler.Questions)
	notes.POST("/:id/questions", noteHandler.Ask)

	router.POST("/summarize", jsonLimit, studyHandler.Summarize)
	router.POST("/ask", jsonLimit, studyHandler.Ask)
	router.POST("/upload-pdf", uploadLimit, noteHandler.UploadPDF)

	router.POST("/upload-study-material", uploadLimit, materialHandler.Upload)
	router.GET("/study-materials", materialHandler.List)
	router.DELETE("/study-materials/:id", materialHandler.Delete)
	router.GET("/study-materials/:id/file", materialHandler.File)
	router.GET("/download/:filename", materialHandler.Download)
	router.GET("/uploads/:filename", materialHandler.View)

	api := router.Group("/api")
	api.POST("/profile/update", uploadLimit, profileHandler.Update)
	api.GET("/profile/:email", profileHandler.Get)
	api.POST("/analyze-text", jsonLimit, studyHandler.AnalyzeText)
	api.POST("/ask-question", jsonLimit, studyHandler.AskQuestion)
	api.POST("/generate-questions", jsonLimit, studyHandler.GenerateQuestions)
	api.POST("/arcci", jsonLimit, studyHandler.ReverseLearn)
	api.POST("/tts", jsonLimit, studyHandler.TextToSpeech)

	return router
}
