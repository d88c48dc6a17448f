package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/pickleball-backend/internal/modules/videoanalysis"
	"github.com/yungbote/pickleball-backend/internal/platform/filestage"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
	"github.com/yungbote/pickleball-backend/internal/services"
)

type Services struct {
	Catalog       services.CatalogService
	Learners      services.LearnerService
	Curriculum    services.CurriculumService
	Analyses      services.AnalysisQueryService
	VideoAnalysis services.VideoAnalysisService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	stage, err := filestage.New(log, filestage.Config{
		TempDir:      cfg.Storage.TempDir,
		PermanentDir: cfg.Storage.PermanentDir,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init file stage: %w", err)
	}

	curriculum := services.NewCurriculumService(db, log, repos.Lesson, repos.LearnerProgress, repos.VideoLessonRecommendation)

	pipeline := services.NewVideoAnalysisService(services.VideoAnalysisDeps{
		DB:                db,
		Log:               log,
		Stage:             stage,
		Analyzer:          clients.Analyzer,
		Interpreter:       videoanalysis.NewInterpreter(log, repos.Learner),
		Curriculum:        curriculum,
		Learners:          repos.Learner,
		Courses:           repos.Course,
		Analyses:          repos.VideoAnalysis,
		Latest:            repos.VideoLessonRecommendation,
		Events:            clients.Events,
		Archive:           clients.Archive,
		SideEffectTimeout: cfg.Pipeline.SideEffectTimeout,
	})

	return Services{
		Catalog:       services.NewCatalogService(db, log, repos.Course, repos.Lesson),
		Learners:      services.NewLearnerService(db, log, repos.Learner),
		Curriculum:    curriculum,
		Analyses:      services.NewAnalysisQueryService(db, log, repos.VideoAnalysis, repos.VideoLessonRecommendation, repos.Lesson),
		VideoAnalysis: pipeline,
	}, nil
}
