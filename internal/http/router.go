package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/pickleball-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pickleball-backend/internal/http/middleware"
	"github.com/yungbote/pickleball-backend/internal/observability"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	CORSOrigins []string
	// ServiceName enables otelgin spans when set.
	ServiceName string

	VideoAnalysisHandler *httpH.VideoAnalysisHandler
	CourseHandler        *httpH.CourseHandler
	LessonHandler        *httpH.LessonHandler
	LearnerHandler       *httpH.LearnerHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Video analysis
		if cfg.VideoAnalysisHandler != nil {
			api.POST("/ai/full-analysis", cfg.VideoAnalysisHandler.FullAnalysis)
			api.GET("/ai/analyses/:id", cfg.VideoAnalysisHandler.GetAnalysis)
			api.GET("/ai/analyses/user/:userId", cfg.VideoAnalysisHandler.ListUserAnalyses)
			api.GET("/ai/analyses/user/:userId/latest-recommendation", cfg.VideoAnalysisHandler.LatestRecommendation)
		}

		// Course
		if cfg.CourseHandler != nil {
			api.GET("/courses", cfg.CourseHandler.ListCourses)
			api.GET("/courses/:id", cfg.CourseHandler.GetCourse)
			api.GET("/courses/:id/lessons", cfg.CourseHandler.ListCourseLessons)
		}

		// Lesson
		if cfg.LessonHandler != nil {
			api.GET("/lessons/:id", cfg.LessonHandler.GetLesson)
			api.GET("/learners/:userId/recommended-lessons", cfg.LessonHandler.RecommendedLessons)
		}

		// Learner
		if cfg.LearnerHandler != nil {
			api.GET("/learners/:userId", cfg.LearnerHandler.GetLearner)
		}
	}

	return r
}
