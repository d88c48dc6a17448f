package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pickleball-backend/internal/http"
	httpH "github.com/yungbote/pickleball-backend/internal/http/handlers"
	"github.com/yungbote/pickleball-backend/internal/observability"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type Handlers struct {
	Health        *httpH.HealthHandler
	VideoAnalysis *httpH.VideoAnalysisHandler
	Course        *httpH.CourseHandler
	Lesson        *httpH.LessonHandler
	Learner       *httpH.LearnerHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:        httpH.NewHealthHandler(db),
		VideoAnalysis: httpH.NewVideoAnalysisHandler(log, services.VideoAnalysis, services.Analyses),
		Course:        httpH.NewCourseHandler(log, services.Catalog),
		Lesson:        httpH.NewLessonHandler(log, services.Catalog, services.Curriculum),
		Learner:       httpH.NewLearnerHandler(log, services.Learners),
	}
}

func routerConfig(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers) http.RouterConfig {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.RouterConfig{
		Log:                  log,
		Metrics:              metrics,
		CORSOrigins:          cfg.HTTP.CORSOrigins,
		ServiceName:          serviceName,
		HealthHandler:        handlers.Health,
		VideoAnalysisHandler: handlers.VideoAnalysis,
		CourseHandler:        handlers.Course,
		LessonHandler:        handlers.Lesson,
		LearnerHandler:       handlers.Learner,
	}
}
