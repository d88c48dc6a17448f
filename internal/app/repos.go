package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pickleball-backend/internal/data/repos"
	"github.com/yungbote/pickleball-backend/internal/platform/logger"
)

type Repos struct {
	Learner                   repos.LearnerRepo
	Course                    repos.CourseRepo
	Lesson                    repos.LessonRepo
	LearnerProgress           repos.LearnerProgressRepo
	VideoAnalysis             repos.VideoAnalysisRepo
	VideoLessonRecommendation repos.VideoLessonRecommendationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Learner:                   repos.NewLearnerRepo(db, log),
		Course:                    repos.NewCourseRepo(db, log),
		Lesson:                    repos.NewLessonRepo(db, log),
		LearnerProgress:           repos.NewLearnerProgressRepo(db, log),
		VideoAnalysis:             repos.NewVideoAnalysisRepo(db, log),
		VideoLessonRecommendation: repos.NewVideoLessonRecommendationRepo(db, log),
	}
}
